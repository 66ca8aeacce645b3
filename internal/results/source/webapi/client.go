// Package webapi implements the last-resort result source: an HTTP client
// for an external result hub. The engine consults it only after every
// internal store has missed.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

// Client adapts an external result hub API to the source contract.
type Client struct {
	id      string
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout (default 15s; external lookups
// get more headroom than internal stores).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithAPIKey sets the bearer credential sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client; tests point it at an
// httptest server transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New constructs a web API result source.
func New(id, baseURL string, opts ...Option) (*Client, error) {
	if id == "" {
		return nil, fmt.Errorf("source id is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		id:      id,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ID() string {
	return c.id
}

type searchRequest struct {
	RollNo     string `json:"roll_no"`
	Regulation int    `json:"regulation,omitempty"`
	Program    string `json:"program,omitempty"`
}

type searchResponse struct {
	Success    bool   `json:"success"`
	Roll       string `json:"roll"`
	Name       string `json:"name"`
	Regulation int    `json:"regulation"`
	Exam       string `json:"exam"`
	Institute  struct {
		Code     string `json:"code"`
		Name     string `json:"name"`
		District string `json:"district"`
	} `json:"institute"`
	ResultData []struct {
		Semester    string    `json:"semester"`
		GPA         string    `json:"gpa"`
		RefSubjects []string  `json:"ref_subjects"`
		Passed      bool      `json:"passed"`
		PublishedAt time.Time `json:"published_at"`
	} `json:"result_data"`
	CGPA *float64 `json:"cgpa"`
}

// Query performs the external lookup. A 404 or success=false body is a clean
// miss; everything else that goes wrong is classified for the fallback chain.
func (c *Client) Query(ctx context.Context, q models.RollQuery) source.Outcome {
	body, err := json.Marshal(searchRequest{
		RollNo:     q.RollNumber,
		Regulation: q.ExamYear,
		Program:    q.ExamType,
	})
	if err != nil {
		return source.Errored(source.ErrorMalformed, c.id, "encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return source.Errored(source.ErrorUnreachable, c.id, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return source.Errored(source.ErrorTimeout, c.id, "search request", err)
		}
		return source.Errored(source.ErrorUnreachable, c.id, "search request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return source.NotFound()
	case resp.StatusCode != http.StatusOK:
		return source.Errored(source.ErrorUnreachable, c.id,
			fmt.Sprintf("search request returned status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return source.Errored(source.ErrorMalformed, c.id, "decode search response", err)
	}
	if !payload.Success {
		return source.NotFound()
	}

	return source.Found(c.toRecord(payload))
}

// Ping checks the hub's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health request returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) toRecord(payload searchResponse) *models.ResultRecord {
	record := &models.ResultRecord{
		RollNumber: payload.Roll,
		Name:       payload.Name,
		ExamYear:   payload.Regulation,
		ExamType:   payload.Exam,
		Institute: models.Institute{
			Code:     payload.Institute.Code,
			Name:     payload.Institute.Name,
			District: payload.Institute.District,
		},
		CGPA:     payload.CGPA,
		SourceID: c.id,
	}
	for _, semester := range payload.ResultData {
		record.Semesters = append(record.Semesters, models.SemesterResult{
			Semester:    semester.Semester,
			GPA:         semester.GPA,
			RefSubjects: semester.RefSubjects,
			Passed:      semester.Passed,
			PublishedAt: semester.PublishedAt,
		})
	}
	return record
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
