// Package submit is the HTTP client for the durable submission backend.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// Request is the payload for POST /submit.
type Request struct {
	SessionOwner string                `json:"session_owner"`
	DocumentID   string                `json:"document_id"`
	Answers      map[string]string     `json:"answers"`
	Score        float64               `json:"score"`
	Details      []model.GradingResult `json:"details"`
	LatePenalty  *model.LatePenalty    `json:"late_penalty,omitempty"`
}

// Client talks to the submission backend's create/read endpoints.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a submission client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit stores a finalized result and returns the backend's submission ID.
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submission request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("submit result: backend returned %s", resp.Status)
	}

	var out struct {
		SubmissionID string `json:"submission_id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submission response: %w", err)
	}
	return out.SubmissionID, nil
}

// PriorResult returns an earlier finalized result for the owner/document
// pair, or nil when the backend has none.
func (c *Client) PriorResult(ctx context.Context, sessionOwner, documentID string) (*model.FinalResult, error) {
	q := url.Values{}
	q.Set("sessionOwner", sessionOwner)
	q.Set("documentId", documentID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/result?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build result request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch prior result: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch prior result: backend returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read prior result: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var out model.FinalResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode prior result: %w", err)
	}
	return &out, nil
}
