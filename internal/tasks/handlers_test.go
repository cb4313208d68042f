package tasks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"equitask-backend/internal/ai"
	"equitask-backend/internal/analytics"
	"equitask-backend/internal/config"
)

type fakeExecer struct {
	queries []string
	args    [][]any
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return driver.RowsAffected(1), nil
}

func newTestHandler(t *testing.T, apiKey bool) (*TaskHandler, *MockInvoker, *fakeExecer) {
	t.Helper()
	s, invoker := newTestSimplifier(t)
	db := &fakeExecer{}
	return New(s, analytics.NewRecorder(db, quietLogger()), apiKey, quietLogger()), invoker, db
}

func postSimplify(h *TaskHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ai/task-simplify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Simplify(rec, req)
	return rec
}

func TestTaskHandler_Simplify(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		h, _, db := newTestHandler(t, false)

		rec := postSimplify(h, `{"task_id":"t1","task_text":"`+reportingTask+`"}`, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "OPENAI_API_KEY is not set on the server.")
		assert.Empty(t, db.queries)
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _, _ := newTestHandler(t, true)

		rec := postSimplify(h, `{"task_id":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	for name, body := range map[string]string{
		"missing task_id":   `{"task_text":"` + reportingTask + `"}`,
		"missing task_text": `{"task_id":"t1"}`,
		"empty task_text":   `{"task_id":"t1","task_text":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			h, _, _ := newTestHandler(t, true)

			rec := postSimplify(h, body, nil)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}

	t.Run("vague text is clarified without a model call", func(t *testing.T) {
		h, _, db := newTestHandler(t, true)

		rec := postSimplify(h, `{"task_id":"t1","task_text":"Fix the issue"}`, map[string]string{
			"X-Platform":      "iOS",
			"Idempotency-Key": "evt-1",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		_, err := uuid.Parse(rec.Header().Get("X-Request-Id"))
		assert.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "CLARIFY", got["status"])
		assert.Equal(t, "t1", got["task_id"])

		require.Len(t, db.args, 1)
		args := db.args[0]
		assert.Equal(t, analytics.EventTaskSimplified, args[0])
		assert.Equal(t, "ios", args[4])
		assert.Equal(t, sql.NullString{String: "evt-1", Valid: true}, args[7])
		assert.Equal(t, pq.Array([]string{"Clarification required"}), args[8])

		props := args[9].(string)
		assert.NotContains(t, props, "Fix the issue")
		var p map[string]any
		require.NoError(t, json.Unmarshal([]byte(props), &p))
		assert.Equal(t, "CLARIFY", p["status"])
		assert.Equal(t, "CLARIFICATION", p["fallback_type"])
		assert.Equal(t, "vague_input", p["fallback_reason"])
		assert.Equal(t, 13.0, p["text_len"])
	})

	t.Run("defaults are applied and result is returned", func(t *testing.T) {
		h, invoker, _ := newTestHandler(t, true)
		invoker.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, call ai.Call) (ai.StructuredResponse, error) {
			assert.Equal(t, config.DefaultModel, call.Model)
			assert.True(t, strings.HasSuffix(call.SystemPrompt, "Task type: Unknown."))
			assert.Contains(t, call.UserPrompt, reportingTask)
			return reportingResponse(), nil
		}).Times(1)

		rec := postSimplify(h, `{"task_id":"t2","task_text":"`+reportingTask+`","model":null}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "t2", got["task_id"])
		assert.Equal(t, "ACCEPT", got["status"])
		assert.Len(t, got["simplified_steps"], 2)
	})

	t.Run("model override and request id passthrough", func(t *testing.T) {
		h, invoker, _ := newTestHandler(t, true)
		invoker.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, call ai.Call) (ai.StructuredResponse, error) {
			assert.Equal(t, "gpt-4o-mini", call.Model)
			return reportingResponse(), nil
		}).Times(1)

		id := uuid.NewString()
		rec := postSimplify(h, `{"task_id":"t3","task_text":"`+reportingTask+`","task_type":"Reporting","model":"gpt-4o-mini"}`, map[string]string{
			"X-Request-Id": id,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, rec.Header().Get("X-Request-Id"))
	})
}

func TestSimplifyRequest_TaskRequest(t *testing.T) {
	id, text, model := "t1", "some task text", " gpt-4o "
	req := SimplifyRequest{TaskID: &id, TaskText: &text, TaskType: "  ", Model: &model}

	require.NoError(t, req.Validate())
	assert.Equal(t, TaskRequest{
		TaskID:            "t1",
		TaskText:          "some task text",
		TaskType:          "Unknown",
		AccessibilityMode: "Standard",
		Model:             "gpt-4o",
	}, req.TaskRequest())

	err := SimplifyRequest{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_id required")
	assert.Contains(t, err.Error(), "task_text required")
}
