package view

import (
	"context"
	"errors"
	"testing"

	"github.com/OsbornePro/quickcopy/internal/client"
	"github.com/OsbornePro/quickcopy/internal/window"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	payload  string
	fetchErr error
	closeErr error
	closes   int
}

func (b *fakeBackend) Fetch(context.Context) (string, error) {
	if b.fetchErr != nil {
		return "", b.fetchErr
	}
	return b.payload, nil
}

func (b *fakeBackend) Close(context.Context) error {
	b.closes++
	return b.closeErr
}

type fakeClip struct {
	copied []string
	err    error
}

func (c *fakeClip) Copy(text string) error {
	if c.err != nil {
		return c.err
	}
	c.copied = append(c.copied, text)
	return nil
}

const loginJSON = `{"type":"login","title":"GitHub","url":"https://github.com","username":"octo","password":"pw123"}`

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies msg and feeds the resulting command's message back once.
func send(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	m.Update(out)
	return out
}

func loaded(t *testing.T, payload string) (*Model, *fakeBackend, *fakeClip) {
	t.Helper()
	b := &fakeBackend{payload: payload}
	c := &fakeClip{}
	m := New(context.Background(), b, c, window.DefaultOptions())
	m.Update(m.fetch()())
	return m, b, c
}

func TestLoadsCredential(t *testing.T) {
	m, _, _ := loaded(t, loginJSON)
	require.NotNil(t, m.cred)
	assert.False(t, m.loading)
	assert.Len(t, m.fields, 3)

	out := m.View()
	assert.Contains(t, out, "GitHub")
	assert.Contains(t, out, "github.com")
	assert.NotContains(t, out, "pw123")
}

func TestNoCredential(t *testing.T) {
	b := &fakeBackend{fetchErr: client.ErrNoCredential}
	m := New(context.Background(), b, &fakeClip{}, window.DefaultOptions())
	m.Update(m.fetch()())

	assert.Nil(t, m.cred)
	assert.Contains(t, m.View(), "No credential data available")

	// Copy keys do nothing without a credential.
	_, cmd := m.Update(key("c"))
	assert.Nil(t, cmd)
}

func TestUnreadablePayload(t *testing.T) {
	m, _, _ := loaded(t, "not json")
	assert.Contains(t, m.View(), "unreadable")
}

func TestCopyField(t *testing.T) {
	m, _, clip := loaded(t, loginJSON)

	send(m, key("down"))
	send(m, key("down"))
	out := send(m, key("enter"))

	require.IsType(t, copiedMsg{}, out)
	assert.Equal(t, []string{"pw123"}, clip.copied)
	assert.Equal(t, "password", m.copiedKey)
	assert.Contains(t, m.View(), "copied")

	m.Update(clearCopiedMsg{seq: m.copiedSeq})
	assert.Empty(t, m.copiedKey)
}

func TestStaleClearKeepsNewerMarker(t *testing.T) {
	m, _, _ := loaded(t, loginJSON)

	send(m, key("c"))
	first := m.copiedSeq
	send(m, key("c"))

	m.Update(clearCopiedMsg{seq: first})
	assert.Equal(t, "url", m.copiedKey)
}

func TestCopyAll(t *testing.T) {
	m, _, clip := loaded(t, loginJSON)
	send(m, key("a"))
	require.Len(t, clip.copied, 1)
	assert.Contains(t, clip.copied[0], "octo")
	assert.Contains(t, clip.copied[0], "pw123")
}

func TestCopyFailureShowsStatus(t *testing.T) {
	m, _, clip := loaded(t, loginJSON)
	clip.err = errors.New("no display")
	send(m, key("enter"))
	assert.Contains(t, m.View(), "Copy failed: no display")
}

func TestReveal(t *testing.T) {
	m, _, _ := loaded(t, loginJSON)
	send(m, key("v"))
	assert.Contains(t, m.View(), "pw123")
}

func TestCursorBounds(t *testing.T) {
	m, _, _ := loaded(t, loginJSON)
	send(m, key("k"))
	assert.Equal(t, 0, m.cursor)
	for i := 0; i < 10; i++ {
		send(m, key("j"))
	}
	assert.Equal(t, 2, m.cursor)
}

func TestEscClosesWindow(t *testing.T) {
	m, b, _ := loaded(t, loginJSON)

	_, cmd := m.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.True(t, m.closing)

	// A second esc while closing is ignored.
	_, again := m.Update(key("esc"))
	assert.Nil(t, again)

	msg := cmd()
	assert.Equal(t, closedMsg{}, msg)
	assert.Equal(t, 1, b.closes)

	_, quit := m.Update(msg)
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
}

func TestCloseFailureStays(t *testing.T) {
	m, b, _ := loaded(t, loginJSON)
	b.closeErr = errors.New("window is already closing")

	send(m, key("esc"))
	assert.False(t, m.closing)
	assert.Contains(t, m.View(), "Close failed")
}
