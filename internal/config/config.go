// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type NATSConfig struct {
	// Enabled turns the closure broadcast bus on (default true).
	Enabled *bool `json:"enabled" yaml:"enabled"`
	// Listen is where the embedded server binds. Ignored when URL is set.
	Listen string `json:"listen" yaml:"listen"`
	// URL points at an external NATS server instead of the embedded one.
	URL string `json:"url" yaml:"url"`
}

type ViewConfig struct {
	// Command launches the auxiliary view; the first element is the binary.
	Command        []string `json:"command" yaml:"command"`
	CloseTimeoutMs int      `json:"close_timeout_ms" yaml:"close_timeout_ms"`

	// Direct launches Command as is, for views that open their own window.
	// Otherwise Command runs inside Terminal (default: alacritty).
	Direct *bool `json:"direct" yaml:"direct"`

	// Terminal wrapper argv and the fragments appended per window option.
	// Placeholders: {label} {title} {width} {height} {cols} {rows}.
	Terminal        []string `json:"terminal" yaml:"terminal"`
	OnTopArgs       []string `json:"on_top_args" yaml:"on_top_args"`
	UndecoratedArgs []string `json:"undecorated_args" yaml:"undecorated_args"`
	FixedSizeArgs   []string `json:"fixed_size_args" yaml:"fixed_size_args"`
	SkipTaskbarArgs []string `json:"skip_taskbar_args" yaml:"skip_taskbar_args"`
	ExecArgs        []string `json:"exec_args" yaml:"exec_args"`
}

type Config struct {
	ListenAddr    string `json:"listen_addr" yaml:"listen_addr"`
	MaxPayloadLen int    `json:"max_payload_len" yaml:"max_payload_len"`

	// Command API token. Kept in the OS keyring when UseKeyring is true,
	// else (or when the keyring is unavailable) in TokenFile.
	TokenHeader string `json:"token_header" yaml:"token_header"`
	TokenFile   string `json:"token_file" yaml:"token_file"`
	UseKeyring  *bool  `json:"use_keyring" yaml:"use_keyring"`

	NATS NATSConfig `json:"nats" yaml:"nats"`
	View ViewConfig `json:"view" yaml:"view"`

	// How long a copied field stays on the clipboard; 0 disables clearing.
	ClipboardClearMs int `json:"clipboard_clear_ms" yaml:"clipboard_clear_ms"`

	// --------------------
	// Logging (optional)
	// --------------------
	// If LogFile is set, logs go to that file (with rotation).
	// Else if LogDir is set, logs go to LogDir/quickcopy.log (with rotation).
	// If neither is set, logs go to stderr only.
	LogFile     string `json:"log_file" yaml:"log_file"`
	LogDir      string `json:"log_dir" yaml:"log_dir"`
	LogRotateMB int    `json:"log_rotate_mb" yaml:"log_rotate_mb"` // default 10
	LogKeep     int    `json:"log_keep" yaml:"log_keep"`           // default 10
	LogStderr   *bool  `json:"log_stderr" yaml:"log_stderr"`       // default true
	LogRedact   *bool  `json:"log_redact" yaml:"log_redact"`       // default true
	LogLevel    string `json:"log_level" yaml:"log_level"`         // default info
}

const (
	DefaultYAML = "quickcopy.yaml"
	DefaultYML  = "quickcopy.yml"
	DefaultJSON = "quickcopy.json"
)

// Load reads the config at path. An empty path picks the first default file
// that exists; if none exists the defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = pickConfigPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file: defaults only
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config extension %q (use .json/.yaml/.yml)", ext)
	}
	return nil
}

func pickConfigPath() string {
	if fileExists(DefaultYAML) {
		return DefaultYAML
	}
	if fileExists(DefaultYML) {
		return DefaultYML
	}
	return DefaultJSON
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:60780"
	}
	if c.MaxPayloadLen == 0 {
		c.MaxPayloadLen = 64 * 1024
	}

	if c.TokenHeader == "" {
		c.TokenHeader = "X-QuickCopy-Token"
	}
	if c.TokenFile == "" {
		c.TokenFile = "quickcopy_token.txt"
	}
	if c.UseKeyring == nil {
		v := true
		c.UseKeyring = &v
	}

	if c.NATS.Enabled == nil {
		v := true
		c.NATS.Enabled = &v
	}
	if c.NATS.Listen == "" {
		c.NATS.Listen = "127.0.0.1:60781"
	}

	if len(c.View.Command) == 0 {
		c.View.Command = []string{"quickcopy-view"}
	}
	if c.View.CloseTimeoutMs == 0 {
		c.View.CloseTimeoutMs = 2000
	}

	if c.ClipboardClearMs == 0 {
		c.ClipboardClearMs = 30000
	}

	// Logging defaults
	if c.LogRotateMB == 0 {
		c.LogRotateMB = 10
	}
	if c.LogKeep == 0 {
		c.LogKeep = 10
	}
	if c.LogStderr == nil {
		v := true
		c.LogStderr = &v
	}
	if c.LogRedact == nil {
		v := true
		c.LogRedact = &v
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects settings the daemon must never run with.
func (c *Config) Validate() error {
	if !IsLoopbackListenAddr(c.ListenAddr) {
		return fmt.Errorf("listen_addr must be loopback (got %q)", c.ListenAddr)
	}
	if BoolDeref(c.NATS.Enabled, true) && c.NATS.URL == "" && !IsLoopbackListenAddr(c.NATS.Listen) {
		return fmt.Errorf("nats.listen must be loopback (got %q)", c.NATS.Listen)
	}
	if c.MaxPayloadLen < 0 {
		return fmt.Errorf("max_payload_len must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// IsLoopbackListenAddr reports whether addr ("host:port") only binds loopback.
func IsLoopbackListenAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return false
	}
	for _, x := range ips {
		if !x.IsLoopback() {
			return false
		}
	}
	return true
}

func BoolDeref(ptr *bool, def bool) bool {
	if ptr == nil {
		return def
	}
	return *ptr
}
