// Package client talks to the quick copy command API of a running daemon.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/OsbornePro/quickcopy/internal/api"
	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// ErrNoCredential is returned by Fetch when nothing is pending.
var ErrNoCredential = errors.New(api.NoCredentialMessage)

// CommandError is a failed command as reported by the daemon.
type CommandError struct {
	Command    string
	StatusCode int
	Message    string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Command, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

type Client struct {
	rc *resty.Client
}

// New returns a client for the daemon at baseURL (for example
// "http://127.0.0.1:60780").
func New(baseURL, token, tokenHeader string) *Client {
	if tokenHeader == "" {
		tokenHeader = "X-QuickCopy-Token"
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "quickcopy-client").
		SetHeader(tokenHeader, token)
	return &Client{rc: rc}
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.rc.SetTimeout(d)
	return c
}

// Open hands payload to the daemon and opens the quick copy window.
func (c *Client) Open(ctx context.Context, payload string) error {
	_, err := c.command(ctx, api.CmdOpen, api.OpenRequest{CredentialJSON: &payload})
	return err
}

// Fetch takes the pending payload. It returns ErrNoCredential when the slot
// is empty.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	r, err := c.command(ctx, api.CmdFetch, nil)
	if err != nil {
		var cerr *CommandError
		if errors.As(err, &cerr) && cerr.Message == api.NoCredentialMessage {
			return "", ErrNoCredential
		}
		return "", err
	}
	if r.CredentialJSON == nil {
		return "", ErrNoCredential
	}
	return *r.CredentialJSON, nil
}

// Close destroys the quick copy window and drops any pending payload.
func (c *Client) Close(ctx context.Context) error {
	_, err := c.command(ctx, api.CmdClose, nil)
	return err
}

// Status reports the logical window state.
func (c *Client) Status(ctx context.Context) (window.State, error) {
	var out api.Reply
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).SetError(&out).Get("/status")
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	if err := replyError("status", resp, &out); err != nil {
		return "", err
	}
	return out.Window, nil
}

func (c *Client) command(ctx context.Context, name string, body any) (*api.Reply, error) {
	var out api.Reply
	req := c.rc.R().SetContext(ctx).SetResult(&out).SetError(&out)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Post("/commands/" + name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := replyError(name, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func replyError(name string, resp *resty.Response, out *api.Reply) error {
	if resp.StatusCode() == http.StatusOK && out.OK {
		return nil
	}
	msg := out.Error
	if msg == "" && resp.StatusCode() != http.StatusOK {
		msg = strings.TrimSpace(resp.String())
	}
	return &CommandError{Command: name, StatusCode: resp.StatusCode(), Message: msg}
}
