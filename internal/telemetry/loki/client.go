// Package loki pushes request events to Grafana Loki over the v1 push API.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ticketdesk/backend/internal/events"
)

const defaultJob = "ticketdesk"

// Loki label values must stay within a safe character set; anything else is
// replaced with an underscore.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

type pushRequest struct {
	Streams []streamEntry `json:"streams"`
}

type streamEntry struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each value is [timestamp_ns, line]
}

// Client pushes log lines to a Loki instance. Safe for concurrent use.
type Client struct {
	baseURL string
	job     string
	httpc   *http.Client
}

// NewClient returns a Client for the Loki instance at baseURL
// (e.g. http://localhost:3100).
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("loki: base URL is empty")
	}
	return &Client{
		baseURL: baseURL,
		job:     defaultJob,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// PushEventJSON decodes a request event (the Kafka message value) and pushes
// it as one log line labeled by user, event type, and source, stamped with the
// event's creation time. A payload that does not decode as an event is still
// pushed raw with the current time so no message is dropped.
func (c *Client) PushEventJSON(ctx context.Context, raw []byte) error {
	ts := time.Now().UTC()
	labels := map[string]string{}
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err == nil {
		if ev.UserID != "" {
			labels["user_id"] = ev.UserID
		}
		if ev.EventType != "" {
			labels["event_type"] = ev.EventType
		}
		if ev.Source != "" {
			labels["source"] = ev.Source
		}
		if !ev.CreatedAt.IsZero() {
			ts = ev.CreatedAt
		}
	}
	return c.Push(ctx, ts, string(raw), labels)
}

// Push sends a single log line with the given labels. The job label is always
// set; label values are sanitized, and labels that sanitize to empty are
// dropped. Returns an error when the request fails or Loki answers non-2xx.
func (c *Client) Push(ctx context.Context, ts time.Time, line string, labels map[string]string) error {
	stream := map[string]string{"job": c.job}
	for k, v := range labels {
		if v = labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); v != "" {
			stream[k] = v
		}
	}
	payload, err := json.Marshal(pushRequest{
		Streams: []streamEntry{{
			Stream: stream,
			Values: [][]string{{strconv.FormatInt(ts.UnixNano(), 10), line}},
		}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
