// cmd/quickcopy-view/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/OsbornePro/quickcopy/internal/client"
	"github.com/OsbornePro/quickcopy/internal/clipboard"
	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/host"
	"github.com/OsbornePro/quickcopy/internal/logging"
	"github.com/OsbornePro/quickcopy/internal/token"
	"github.com/OsbornePro/quickcopy/internal/view"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", os.Getenv(host.EnvConfig), "path to quickcopy.yaml/.yml/.json")
	apiURL := flag.String("api", os.Getenv(host.EnvAPI), "command API base URL")
	flag.Parse()

	if err := run(*configPath, *apiURL); err != nil {
		fmt.Fprintln(os.Stderr, "quickcopy-view:", err)
		os.Exit(1)
	}
}

func run(configPath, apiURL string) error {
	// Without a terminal nobody sees the window; leave the payload pending
	// and exit so the daemon reports the window gone.
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("quickcopy-view needs a terminal; launch it through view.terminal")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// The terminal belongs to the view; logs only go to a configured file.
	noStderr := false
	cfg.LogStderr = &noStderr
	if err := logging.Init(cfg); err != nil {
		return err
	}

	if apiURL == "" {
		apiURL = "http://" + cfg.ListenAddr
	}
	tok, err := token.Load(token.Options{
		UseKeyring: config.BoolDeref(cfg.UseKeyring, true),
		File:       cfg.TokenFile,
	})
	if err != nil {
		return fmt.Errorf("API token: %w", err)
	}
	logging.AddSecret(tok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := host.OptionsFromEnv(os.Getenv)
	backend := client.New(apiURL, tok, cfg.TokenHeader)
	clip := clipboard.NewSystem(time.Duration(cfg.ClipboardClearMs) * time.Millisecond)

	p := tea.NewProgram(view.New(ctx, backend, clip, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrInterrupted) && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	logrus.WithField("window", opts.Label).Debug("view exited")
	return nil
}
