// Package api is the client side of the command-submission collaborator:
// form-encoded POST endpoints keyed by role and session code. Responses
// carry a status discriminator that is treated as success or failure only;
// a failure is surfaced to the caller for inline display, never treated as
// fatal.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leitstand/leitstand/pkg/metrics"
)

// Commands submits operator commands for one session.
type Commands struct {
	base    string
	code    string
	http    *http.Client
	metrics *metrics.Set
}

// NewCommands creates a command client for the given HTTP base URL and
// session code.
func NewCommands(base, code string, m *metrics.Set) *Commands {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Commands{
		base:    strings.TrimRight(base, "/"),
		code:    code,
		http:    &http.Client{Timeout: 10 * time.Second},
		metrics: m,
	}
}

// SendMessage delivers a free-text message; an empty target broadcasts to
// the whole session.
func (c *Commands) SendMessage(ctx context.Context, target, message string) error {
	form := url.Values{"message": {message}}
	if target != "" {
		form.Set("target_name", target)
	}
	return c.post(ctx, "message", "leitstelle", form)
}

// UpdateNote stores the operator's annotation for a unit.
func (c *Commands) UpdateNote(ctx context.Context, target, note string) error {
	return c.post(ctx, "update_note", "leitstelle", url.Values{
		"target_name": {target}, "note": {note},
	})
}

// SetStatus forces a unit's status code from the dispatcher console.
func (c *Commands) SetStatus(ctx context.Context, target, status string) error {
	return c.post(ctx, "set_status", "leitstelle", url.Values{
		"target_name": {target}, "status": {status},
	})
}

// ClearSpecial marks a unit's urgent marker as handled.
func (c *Commands) ClearSpecial(ctx context.Context, target string) error {
	return c.post(ctx, "clear_special", "leitstelle", url.Values{"target_name": {target}})
}

// ClearKurzstatus acknowledges a unit's short free-text tag.
func (c *Commands) ClearKurzstatus(ctx context.Context, target string) error {
	return c.post(ctx, "clear_kurzstatus", "leitstelle", url.Values{"target_name": {target}})
}

// RaiseNotice requests a conversation with a unit, creating a pending
// notice.
func (c *Commands) RaiseNotice(ctx context.Context, target, text string) error {
	return c.post(ctx, "notice", "staffelfuehrer", url.Values{
		"target_name": {target}, "text": {text},
	})
}

// AcknowledgeNotice clears a unit's notice record entirely.
func (c *Commands) AcknowledgeNotice(ctx context.Context, target string) error {
	return c.post(ctx, "acknowledge", "staffelfuehrer", url.Values{"target_name": {target}})
}

type result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Commands) post(ctx context.Context, command, role string, form url.Values) (err error) {
	defer func() { c.metrics.CommandResult(command, err) }()

	endpoint := fmt.Sprintf("%s/api/%s/%s/%s", c.base, role, c.code, command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", command, resp.StatusCode)
	}

	var res result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	if res.Status != "success" {
		if res.Message != "" {
			return fmt.Errorf("%s: %s", command, res.Message)
		}
		return fmt.Errorf("%s: rejected", command)
	}
	return nil
}
