package host

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test; it stands in for the view binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("QUICKCOPY_HELPER") != "1" {
		return
	}
	if out := os.Getenv("QUICKCOPY_HELPER_ENV_OUT"); out != "" {
		var lines []string
		for _, kv := range os.Environ() {
			if strings.HasPrefix(kv, "QUICKCOPY_WINDOW_") {
				lines = append(lines, kv)
			}
		}
		_ = os.WriteFile(out, []byte(strings.Join(lines, "\n")), 0600)
	}
	if out := os.Getenv("QUICKCOPY_HELPER_ARGS_OUT"); out != "" {
		_ = os.WriteFile(out, []byte(strings.Join(os.Args, "\n")), 0600)
	}
	switch os.Getenv("QUICKCOPY_HELPER_MODE") {
	case "exit":
		os.Exit(0)
	case "stubborn":
		signal.Ignore(os.Interrupt)
		time.Sleep(time.Minute)
	default:
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func helperHost(t *testing.T, mode string, opts ...Option) *ProcessHost {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("signals differ on windows")
	}
	base := []Option{
		WithEnv("QUICKCOPY_HELPER=1", "QUICKCOPY_HELPER_MODE="+mode),
		WithCloseTimeout(500 * time.Millisecond),
	}
	h := NewProcessHost([]string{os.Args[0], "-test.run=^TestHelperProcess$"}, append(base, opts...)...)
	t.Cleanup(func() { _ = h.Close(window.Label) })
	return h
}

func TestProcessHost_CreateExistsClose(t *testing.T) {
	h := helperHost(t, "sleep")
	ctx := context.Background()

	assert.False(t, h.Exists(window.Label))
	require.NoError(t, h.Create(ctx, window.DefaultOptions()))
	assert.True(t, h.Exists(window.Label))

	assert.ErrorIs(t, h.Create(ctx, window.DefaultOptions()), ErrWindowExists)

	require.NoError(t, h.Close(window.Label))
	assert.False(t, h.Exists(window.Label))

	// Closing an absent window is a no-op.
	assert.NoError(t, h.Close(window.Label))
}

func TestProcessHost_KillsStubbornView(t *testing.T) {
	h := helperHost(t, "stubborn")
	require.NoError(t, h.Create(context.Background(), window.DefaultOptions()))
	// give the helper time to install its signal handler
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	require.NoError(t, h.Close(window.Label))
	assert.False(t, h.Exists(window.Label))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcessHost_PassesWindowAttributes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	h := helperHost(t, "exit", WithEnv("QUICKCOPY_HELPER_ENV_OUT="+out))

	require.NoError(t, h.Create(context.Background(), window.DefaultOptions()))
	require.Eventually(t, func() bool { return !h.Exists(window.Label) }, 10*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	env := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			env[k] = v
		}
	}

	got := OptionsFromEnv(func(k string) string { return env[k] })
	assert.Equal(t, window.DefaultOptions(), got)
}

func TestProcessHost_UnrequestedExitCallsOnExit(t *testing.T) {
	exited := make(chan string, 1)
	h := helperHost(t, "exit", WithOnExit(func(label string) { exited <- label }))

	require.NoError(t, h.Create(context.Background(), window.DefaultOptions()))

	select {
	case label := <-exited:
		assert.Equal(t, window.Label, label)
	case <-time.After(10 * time.Second):
		t.Fatal("OnExit not called")
	}
	assert.False(t, h.Exists(window.Label))
}

func TestProcessHost_RequestedCloseSkipsOnExit(t *testing.T) {
	exited := make(chan string, 1)
	h := helperHost(t, "sleep")
	h.SetOnExit(func(label string) { exited <- label })

	require.NoError(t, h.Create(context.Background(), window.DefaultOptions()))
	require.NoError(t, h.Close(window.Label))

	select {
	case label := <-exited:
		t.Fatalf("unexpected OnExit(%q) for a requested close", label)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestProcessHost_StartFailure(t *testing.T) {
	h := NewProcessHost([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	err := h.Create(context.Background(), window.DefaultOptions())
	assert.Error(t, err)
	assert.False(t, h.Exists(window.Label))
}

func TestProcessHost_NoCommand(t *testing.T) {
	h := NewProcessHost(nil)
	assert.ErrorIs(t, h.Create(context.Background(), window.DefaultOptions()), ErrNoCommand)
}

func TestProcessHost_CanceledContext(t *testing.T) {
	h := NewProcessHost([]string{"true"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Create(ctx, window.DefaultOptions()), context.Canceled)
}

func TestOptionsFromEnv_Defaults(t *testing.T) {
	got := OptionsFromEnv(func(string) string { return "" })
	assert.Equal(t, window.DefaultOptions(), got)
}

func ExampleOptionsFromEnv() {
	env := map[string]string{EnvWidth: "640"}
	opts := OptionsFromEnv(func(k string) string { return env[k] })
	fmt.Println(opts.Width, opts.Height)
	// Output: 640 400
}

func TestPresentation_Argv(t *testing.T) {
	got := DefaultPresentation().Argv([]string{"quickcopy-view", "--api", "x"}, window.DefaultOptions())
	assert.Equal(t, []string{
		"alacritty",
		"--title", "Quick Copy",
		"--class", "quick-copy",
		"-o", "window.dimensions.columns=40",
		"-o", "window.dimensions.lines=25",
		"-o", `window.level="AlwaysOnTop"`,
		"-o", `window.decorations="None"`,
		"-e",
		"quickcopy-view", "--api", "x",
	}, got)
}

func TestPresentation_FragmentsFollowOptions(t *testing.T) {
	p := Presentation{
		Terminal:    []string{"term", "{width}x{height}"},
		OnTop:       []string{"--on-top"},
		Undecorated: []string{"--no-chrome"},
		FixedSize:   []string{"--fixed"},
		SkipTaskbar: []string{"--skip-taskbar"},
		Exec:        []string{"--"},
	}
	opts := window.DefaultOptions()
	opts.AlwaysOnTop = false
	opts.Decorations = true
	opts.Width, opts.Height = 640, 480

	got := p.Argv([]string{"view"}, opts)
	assert.Equal(t, []string{"term", "640x480", "--fixed", "--skip-taskbar", "--", "view"}, got)
}

func TestPresentation_DirectLaunch(t *testing.T) {
	view := []string{"view", "-x"}
	assert.Equal(t, view, Presentation{}.Argv(view, window.DefaultOptions()))
}

func TestProcessHost_LaunchesThroughPresentation(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args.txt")
	// The helper binary plays the terminal; everything after "--" is ignored
	// by the test flag parser and recorded verbatim.
	p := Presentation{
		Terminal: []string{os.Args[0], "-test.run=^TestHelperProcess$", "--", "--title", "{title}", "--size", "{cols}x{rows}"},
		OnTop:    []string{"--on-top"},
		Exec:     []string{"-e"},
	}
	h := helperHost(t, "exit", WithEnv("QUICKCOPY_HELPER_ARGS_OUT="+out), WithPresentation(p))
	h.command = []string{"quickcopy-view"}

	require.NoError(t, h.Create(context.Background(), window.DefaultOptions()))
	require.Eventually(t, func() bool { return !h.Exists(window.Label) }, 10*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	args := strings.Split(string(data), "\n")
	i := indexOf(args, "--")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, []string{"--title", "Quick Copy", "--size", "40x25", "--on-top", "-e", "quickcopy-view"}, args[i+1:])
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
