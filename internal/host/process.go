// Package host runs the auxiliary window as a child process, one per label.
// A label is "present" exactly while its process is alive.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/sirupsen/logrus"
)

var (
	ErrWindowExists  = errors.New("window already exists")
	ErrWindowClosing = errors.New("window is already closing")
	ErrNoCommand     = errors.New("no view command configured")
)

// Env var names handed to the view process.
const (
	EnvLabel       = "QUICKCOPY_WINDOW_LABEL"
	EnvTitle       = "QUICKCOPY_WINDOW_TITLE"
	EnvView        = "QUICKCOPY_WINDOW_VIEW"
	EnvWidth       = "QUICKCOPY_WINDOW_WIDTH"
	EnvHeight      = "QUICKCOPY_WINDOW_HEIGHT"
	EnvResizable   = "QUICKCOPY_WINDOW_RESIZABLE"
	EnvDecorations = "QUICKCOPY_WINDOW_DECORATIONS"
	EnvAlwaysOnTop = "QUICKCOPY_WINDOW_ALWAYS_ON_TOP"
	EnvSkipTaskbar = "QUICKCOPY_WINDOW_SKIP_TASKBAR"

	// EnvAPI is the base URL of the command API; EnvConfig the daemon config path.
	EnvAPI    = "QUICKCOPY_API"
	EnvConfig = "QUICKCOPY_CONFIG"
)

type proc struct {
	cmd       *exec.Cmd
	done      chan struct{}
	closing   bool
	requested bool
}

// ProcessHost implements window.Host with child processes.
type ProcessHost struct {
	command      []string
	present      Presentation
	env          []string
	closeTimeout time.Duration
	onExit       func(label string)
	log          *logrus.Entry

	mu    sync.Mutex
	procs map[string]*proc
}

type Option func(*ProcessHost)

// WithEnv adds KEY=VALUE pairs to every view process.
func WithEnv(kv ...string) Option {
	return func(h *ProcessHost) { h.env = append(h.env, kv...) }
}

// WithCloseTimeout bounds how long Close waits before killing the view.
func WithCloseTimeout(d time.Duration) Option {
	return func(h *ProcessHost) { h.closeTimeout = d }
}

// WithPresentation sets how the view is put on screen. Without it the view
// command is launched directly.
func WithPresentation(p Presentation) Option {
	return func(h *ProcessHost) { h.present = p }
}

// WithOnExit registers fn for views that exit without a Close request.
func WithOnExit(fn func(label string)) Option {
	return func(h *ProcessHost) { h.onExit = fn }
}

func NewProcessHost(command []string, opts ...Option) *ProcessHost {
	h := &ProcessHost{
		command:      append([]string(nil), command...),
		closeTimeout: 2 * time.Second,
		log:          logrus.WithField("component", "host"),
		procs:        make(map[string]*proc),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// SetOnExit replaces the exit callback. The daemon builds the host before the
// controller exists, so the callback is wired afterwards.
func (h *ProcessHost) SetOnExit(fn func(label string)) {
	h.mu.Lock()
	h.onExit = fn
	h.mu.Unlock()
}

func (h *ProcessHost) Exists(label string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.procs[label]
	return ok
}

// Create starts the view. It returns once the process has started; the view
// loads its content on its own.
func (h *ProcessHost) Create(ctx context.Context, opts window.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(h.command) == 0 {
		return ErrNoCommand
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.procs[opts.Label]; ok {
		return ErrWindowExists
	}

	// Not CommandContext: the window outlives the request that opened it.
	argv := h.present.Argv(h.command, opts)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(append(os.Environ(), h.env...), windowEnv(opts)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting view %s: %w", argv[0], err)
	}

	p := &proc{cmd: cmd, done: make(chan struct{})}
	h.procs[opts.Label] = p
	go h.watch(opts.Label, p)

	h.log.WithFields(logrus.Fields{"label": opts.Label, "pid": cmd.Process.Pid}).Info("view started")
	return nil
}

// Close asks the view to exit and waits for it, killing it after the close
// timeout. Closing an absent label is a no-op.
func (h *ProcessHost) Close(label string) error {
	h.mu.Lock()
	p, ok := h.procs[label]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	if p.closing {
		h.mu.Unlock()
		return ErrWindowClosing
	}
	p.closing = true
	p.requested = true
	h.mu.Unlock()

	if err := interrupt(p.cmd.Process); err != nil {
		_ = p.cmd.Process.Kill()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(h.closeTimeout):
	}

	h.log.WithField("label", label).Warn("view did not exit in time; killing")
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing view: %w", err)
	}
	<-p.done
	return nil
}

func (h *ProcessHost) watch(label string, p *proc) {
	err := p.cmd.Wait()

	h.mu.Lock()
	if h.procs[label] == p {
		delete(h.procs, label)
	}
	requested := p.requested
	onExit := h.onExit
	close(p.done)
	h.mu.Unlock()

	entry := h.log.WithField("label", label)
	if err != nil && !requested {
		entry = entry.WithError(err)
	}
	entry.WithField("requested", requested).Info("view exited")

	if !requested && onExit != nil {
		onExit(label)
	}
}

func interrupt(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}

func windowEnv(opts window.Options) []string {
	return []string{
		EnvLabel + "=" + opts.Label,
		EnvTitle + "=" + opts.Title,
		EnvView + "=" + opts.View,
		EnvWidth + "=" + strconv.Itoa(opts.Width),
		EnvHeight + "=" + strconv.Itoa(opts.Height),
		EnvResizable + "=" + strconv.FormatBool(opts.Resizable),
		EnvDecorations + "=" + strconv.FormatBool(opts.Decorations),
		EnvAlwaysOnTop + "=" + strconv.FormatBool(opts.AlwaysOnTop),
		EnvSkipTaskbar + "=" + strconv.FormatBool(opts.SkipTaskbar),
	}
}

// OptionsFromEnv rebuilds the window options inside the view process.
func OptionsFromEnv(getenv func(string) string) window.Options {
	opts := window.DefaultOptions()
	if v := getenv(EnvLabel); v != "" {
		opts.Label = v
	}
	if v := getenv(EnvTitle); v != "" {
		opts.Title = v
	}
	if v := getenv(EnvView); v != "" {
		opts.View = v
	}
	if n, err := strconv.Atoi(getenv(EnvWidth)); err == nil && n > 0 {
		opts.Width = n
	}
	if n, err := strconv.Atoi(getenv(EnvHeight)); err == nil && n > 0 {
		opts.Height = n
	}
	if b, err := strconv.ParseBool(getenv(EnvResizable)); err == nil {
		opts.Resizable = b
	}
	if b, err := strconv.ParseBool(getenv(EnvDecorations)); err == nil {
		opts.Decorations = b
	}
	if b, err := strconv.ParseBool(getenv(EnvAlwaysOnTop)); err == nil {
		opts.AlwaysOnTop = b
	}
	if b, err := strconv.ParseBool(getenv(EnvSkipTaskbar)); err == nil {
		opts.SkipTaskbar = b
	}
	return opts
}

var _ window.Host = (*ProcessHost)(nil)
