package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request is one classification call: prompts, the JSON field carrying the
// label in the model's reply, and the closed label set to match against.
type Request struct {
	System   string
	User     string
	Field    string
	Labels   []string
	Fallback string
}

// Client calls a chat-completions style gateway and maps one reply to one
// label. It performs a single attempt; retry policy lives in the dispatcher.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify sends one request and returns the assigned label. Errors are
// *TransientError or *TerminalError so callers can decide on retry.
func (c *Client) Classify(ctx context.Context, req Request) (string, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature":     0.0,
		"response_format": map[string]string{"type": "json_object"},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", &TerminalError{Reason: "marshal request", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", &TerminalError{Reason: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return "", &TransientError{Reason: "request timeout", Err: err}
		}
		return "", &TransientError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &TransientError{Reason: "rate limited"}
	case resp.StatusCode >= 500:
		return "", &TransientError{Reason: fmt.Sprintf("server error %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &TerminalError{Reason: fmt.Sprintf("auth failure %d", resp.StatusCode), Auth: true}
	case resp.StatusCode >= 400:
		return "", &TerminalError{Reason: fmt.Sprintf("rejected %d: %s", resp.StatusCode, truncate(respBody, 200))}
	}

	label, err := extractLabel(respBody, req.Field)
	if err != nil {
		return "", &TerminalError{Reason: "unparseable response", Err: err}
	}
	return matchLabel(label, req), nil
}

// extractLabel digs the named field out of the chat-completion reply. The
// model is told to return pure JSON but replies sometimes wrap it in prose,
// so fall back to the outermost brace pair.
func extractLabel(body []byte, field string) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	content := ""
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	} else {
		content = string(body)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in reply: %s", truncate([]byte(content), 200))
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return "", fmt.Errorf("decode label object: %w", err)
	}
	label := strings.TrimSpace(fields[field])
	if label == "" {
		return "", fmt.Errorf("field %q missing or empty", field)
	}
	return label, nil
}

// matchLabel enforces the closed label set, case-insensitively. An
// off-taxonomy reply degrades to the stage fallback rather than failing.
func matchLabel(label string, req Request) string {
	if len(req.Labels) == 0 {
		return label
	}
	for _, l := range req.Labels {
		if strings.EqualFold(l, label) {
			return l
		}
	}
	return req.Fallback
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
