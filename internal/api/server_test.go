package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/OsbornePro/quickcopy/internal/handoff"
	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token-0123456789"

type memHost struct {
	mu       sync.Mutex
	open     map[string]bool
	closeErr error
}

func (h *memHost) Exists(label string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open[label]
}

func (h *memHost) Create(_ context.Context, opts window.Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open[opts.Label] = true
	return nil
}

func (h *memHost) Close(label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closeErr != nil {
		return h.closeErr
	}
	delete(h.open, label)
	return nil
}

func (h *memHost) setCloseErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeErr = err
}

type countingBus struct {
	mu sync.Mutex
	n  int
}

func (b *countingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

func (b *countingBus) Publish(context.Context, string, any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	return nil
}

type fixture struct {
	srv  *httptest.Server
	host *memHost
	bus  *countingBus
}

func newFixture(t *testing.T, maxBody int64) *fixture {
	t.Helper()
	host := &memHost{open: map[string]bool{}}
	bus := &countingBus{}
	ctrl := window.NewController(handoff.New(), host, bus, window.DefaultOptions())
	s := NewServer(ctrl, Options{Token: testToken, MaxBodyLen: maxBody})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &fixture{srv: ts, host: host, bus: bus}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, Reply) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("X-QuickCopy-Token", testToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var r Reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return resp.StatusCode, r
}

func strp(s string) *string { return &s }

func TestOpenFetchFetch(t *testing.T) {
	f := newFixture(t, 0)

	code, r := f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp(`{"user":"a"}`)})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, r.OK)

	code, r = f.do(t, http.MethodPost, "/commands/"+CmdFetch, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, r.CredentialJSON)
	assert.Equal(t, `{"user":"a"}`, *r.CredentialJSON)

	code, r = f.do(t, http.MethodPost, "/commands/"+CmdFetch, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, r.OK)
	assert.Equal(t, "No credential data available", r.Error)
}

func TestOpenEmptyPayloadIsDelivered(t *testing.T) {
	f := newFixture(t, 0)

	_, r := f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp("")})
	require.True(t, r.OK)

	_, r = f.do(t, http.MethodPost, "/commands/"+CmdFetch, nil)
	require.True(t, r.OK)
	require.NotNil(t, r.CredentialJSON)
	assert.Equal(t, "", *r.CredentialJSON)
}

func TestOpenTwiceThenClose(t *testing.T) {
	f := newFixture(t, 0)

	f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp("X")})
	f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp("Y")})

	_, r := f.do(t, http.MethodGet, "/status", nil)
	assert.Equal(t, window.StatePresentPending, r.Window)

	code, r := f.do(t, http.MethodPost, "/commands/"+CmdClose, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, r.OK)
	assert.Equal(t, 1, f.bus.count())

	_, r = f.do(t, http.MethodPost, "/commands/"+CmdFetch, nil)
	assert.Equal(t, NoCredentialMessage, r.Error)

	_, r = f.do(t, http.MethodGet, "/status", nil)
	assert.Equal(t, window.StateAbsent, r.Window)
}

func TestCloseWithoutWindow(t *testing.T) {
	f := newFixture(t, 0)
	code, r := f.do(t, http.MethodPost, "/commands/"+CmdClose, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, r.OK)
}

func TestCloseFailureIsFlatString(t *testing.T) {
	f := newFixture(t, 0)
	f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp("X")})
	f.host.setCloseErr(errors.New("window is already closing"))

	code, r := f.do(t, http.MethodPost, "/commands/"+CmdClose, nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "window is already closing")
}

func TestOpenRequiresPayloadField(t *testing.T) {
	f := newFixture(t, 0)
	code, r := f.do(t, http.MethodPost, "/commands/"+CmdOpen, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "credential_json is required", r.Error)
}

func TestOpenBodyTooLarge(t *testing.T) {
	f := newFixture(t, 64)
	code, r := f.do(t, http.MethodPost, "/commands/"+CmdOpen, OpenRequest{CredentialJSON: strp(strings.Repeat("x", 200))})
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.False(t, r.OK)
	assert.False(t, f.host.Exists(window.Label))
}

func TestRejectsMissingOrWrongToken(t *testing.T) {
	f := newFixture(t, 0)

	for _, tok := range []string{"", "wrong"} {
		req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/commands/"+CmdFetch, nil)
		require.NoError(t, err)
		if tok != "" {
			req.Header.Set("X-QuickCopy-Token", tok)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, 0)
	code, r := f.do(t, http.MethodPost, "/commands/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "unknown command", r.Error)
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture(t, 0)
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-QuickCopy-Token", testToken)
	req.Header.Set("X-Request-Id", "abc")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get("X-Request-Id"))
}

func TestListenAndServe_RefusesNonLoopback(t *testing.T) {
	s := NewServer(nil, Options{Token: testToken})
	err := s.ListenAndServe(context.Background(), "0.0.0.0:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-loopback")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	host := &memHost{open: map[string]bool{}}
	ctrl := window.NewController(handoff.New(), host, nil, window.DefaultOptions())
	s := NewServer(ctrl, Options{Token: testToken})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
