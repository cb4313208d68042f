package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Call is one structured generation request.
type Call struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// ModelCallError is returned for every failed model call: transport errors,
// provider errors and output that does not parse as the declared structure.
type ModelCallError struct {
	Op  string
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed (%s): %v", e.Op, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenAIClient calls the OpenAI Responses API with a strict JSON schema
// output format. It never retries.
type OpenAIClient struct {
	APIKey  string
	BaseURL string
	HTTP    HTTPDoer
}

func New(apiKey, baseURL string, httpClient HTTPDoer) *OpenAIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
	}
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  struct {
		Format formatSpec `json:"format"`
	} `json:"text"`
	Temperature float64 `json:"temperature"`
}

type responsesResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Refusal string `json:"refusal"`
		} `json:"content"`
	} `json:"output"`
}

// Invoke sends one request and returns the schema-checked response.
func (c *OpenAIClient) Invoke(ctx context.Context, call Call) (StructuredResponse, error) {
	var body responsesRequest
	body.Model = call.Model
	body.Input = []inputMessage{
		{Role: "system", Content: call.SystemPrompt},
		{Role: "user", Content: call.UserPrompt},
	}
	body.Text.Format = formatSpec{
		Type:   "json_schema",
		Name:   SchemaName,
		Schema: ResponseSchema(),
		Strict: true,
	}
	body.Temperature = call.Temperature

	payload, err := json.Marshal(body)
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "marshal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "request", Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "read", Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return StructuredResponse{}, &ModelCallError{Op: "status", Err: fmt.Errorf("status %s: %s", res.Status, truncate(string(raw), 200))}
	}

	var decoded responsesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "decode", Err: err}
	}

	text, err := outputText(decoded)
	if err != nil {
		return StructuredResponse{}, &ModelCallError{Op: "decode", Err: err}
	}

	return ParseStructured(text)
}

func outputText(resp responsesResponse) (string, error) {
	if resp.Error != nil {
		return "", fmt.Errorf("provider error %s: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Status != "" && resp.Status != "completed" {
		return "", fmt.Errorf("response status %q", resp.Status)
	}

	var b strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			switch part.Type {
			case "output_text":
				b.WriteString(part.Text)
			case "refusal":
				return "", fmt.Errorf("model refused: %s", part.Refusal)
			}
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("response has no output text")
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
