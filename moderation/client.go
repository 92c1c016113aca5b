// Package moderation calls an optional external text-moderation service.
// Absence of the service is a valid configuration: every failure path
// degrades to "signal absent" and the pipeline falls back to the local
// keyword list alone.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"report-triage-pipeline/metrics"

	"github.com/apex/log"
)

// ErrUnavailable is returned once the service has been probed and found
// unreachable; callers treat it like any other absent signal.
var ErrUnavailable = errors.New("moderation service unavailable")

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateUnavailable
)

// Client is the external moderation capability. The service is probed once,
// on first use, and the result is latched: uninitialized -> ready or
// uninitialized -> unavailable.
type Client struct {
	endpoint   string
	httpClient *http.Client

	initOnce sync.Once
	state    state
}

// NewClient creates a moderation client for the given endpoint. Every call
// is bounded by the timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type moderateRequest struct {
	Text string `json:"text"`
}

type moderateResponse struct {
	Profane bool `json:"profane"`
}

// IsProfane asks the external service whether the text is abusive. Any
// error, including timeouts, means the signal is absent; the caller must
// not fail the submission over it.
func (c *Client) IsProfane(ctx context.Context, text string) (bool, error) {
	c.initOnce.Do(c.probe)
	if c.state != stateReady {
		metrics.ModerationSignalAbsentTotal.Inc()
		return false, ErrUnavailable
	}

	reqBody, err := json.Marshal(moderateRequest{Text: text})
	if err != nil {
		return false, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/moderate", bytes.NewReader(reqBody))
	if err != nil {
		return false, fmt.Errorf("failed to create moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ModerationSignalAbsentTotal.Inc()
		return false, fmt.Errorf("failed to call moderation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ModerationSignalAbsentTotal.Inc()
		return false, fmt.Errorf("moderation service returned status %d", resp.StatusCode)
	}

	var result moderateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.ModerationSignalAbsentTotal.Inc()
		return false, fmt.Errorf("failed to decode moderation response: %w", err)
	}

	return result.Profane, nil
}

// probe resolves the lifecycle once: a quick health check decides between
// ready and unavailable.
func (c *Client) probe() {
	req, err := http.NewRequest(http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		c.state = stateUnavailable
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warnf("Moderation service unavailable, using local keyword check only: %v", err)
		c.state = stateUnavailable
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warnf("Moderation service health returned %d, using local keyword check only", resp.StatusCode)
		c.state = stateUnavailable
		return
	}
	c.state = stateReady
}
