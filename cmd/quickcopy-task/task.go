package main

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/host"
	"golang.org/x/text/encoding/unicode"
)

const taskNamespace = "http://schemas.microsoft.com/windows/2004/02/mit/task"

// Task is the subset of the Task Scheduler schema quickcopyd needs: start at
// logon of one user, in that user's desktop session.
type Task struct {
	XMLName   xml.Name     `xml:"Task"`
	Version   string       `xml:"version,attr"`
	Xmlns     string       `xml:"xmlns,attr"`
	Desc      string       `xml:"RegistrationInfo>Description"`
	Trigger   logonTrigger `xml:"Triggers>LogonTrigger"`
	Principal principal    `xml:"Principals>Principal"`
	Settings  taskSettings `xml:"Settings"`
	Actions   actions      `xml:"Actions"`
}

type logonTrigger struct {
	Enabled bool   `xml:"Enabled"`
	UserID  string `xml:"UserId"`
}

type principal struct {
	ID        string `xml:"id,attr"`
	UserID    string `xml:"UserId"`
	LogonType string `xml:"LogonType"`
	RunLevel  string `xml:"RunLevel"`
}

type taskSettings struct {
	MultipleInstancesPolicy    string `xml:"MultipleInstancesPolicy"`
	DisallowStartIfOnBatteries bool   `xml:"DisallowStartIfOnBatteries"`
	StopIfGoingOnBatteries     bool   `xml:"StopIfGoingOnBatteries"`
	ExecutionTimeLimit         string `xml:"ExecutionTimeLimit"`
	RestartInterval            string `xml:"RestartOnFailure>Interval"`
	RestartCount               int    `xml:"RestartOnFailure>Count"`
	Enabled                    bool   `xml:"Enabled"`
}

type actions struct {
	Context string `xml:"Context,attr"`
	Exec    struct {
		Command          string `xml:"Command"`
		Arguments        string `xml:"Arguments"`
		WorkingDirectory string `xml:"WorkingDirectory"`
	} `xml:"Exec"`
}

// Layout locates the installed binaries and the config the task runs with.
type Layout struct {
	AppDir     string
	ConfigPath string
}

func (l Layout) daemon() string {
	return filepath.Join(l.AppDir, exeName("quickcopyd"))
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// NewTask builds the logon task for user running quickcopyd with l's config.
func NewTask(user string, l Layout) *Task {
	t := &Task{
		Version: "1.4",
		Xmlns:   taskNamespace,
		Desc:    "QuickCopy window daemon (per-user)",
		Trigger: logonTrigger{Enabled: true, UserID: user},
		Principal: principal{
			ID:        "Author",
			UserID:    user,
			LogonType: "InteractiveToken",
			RunLevel:  "LeastPrivilege",
		},
		Settings: taskSettings{
			MultipleInstancesPolicy: "IgnoreNew",
			ExecutionTimeLimit:      "PT0S",
			RestartInterval:         "PT1M",
			RestartCount:            3,
			Enabled:                 true,
		},
	}
	t.Actions.Context = "Author"
	t.Actions.Exec.Command = l.daemon()
	t.Actions.Exec.Arguments = fmt.Sprintf(`-config "%s"`, l.ConfigPath)
	t.Actions.Exec.WorkingDirectory = filepath.Dir(l.ConfigPath)
	return t
}

// Encode renders t as UTF-16LE with a BOM, the encoding schtasks accepts
// without complaint.
func (t *Task) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	doc := append([]byte(`<?xml version="1.0" encoding="UTF-16"?>`+"\n"), body...)
	return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes(doc)
}

// CheckLayout loads the config the task will run with and makes sure the
// daemon, the view and its terminal wrapper can all be started.
func CheckLayout(l Layout, lookPath func(string) (string, error)) (*config.Config, error) {
	cfg, err := config.Load(l.ConfigPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(l.daemon()); err != nil {
		return nil, fmt.Errorf("daemon binary: %w", err)
	}

	bins := []string{cfg.View.Command[0]}
	if !config.BoolDeref(cfg.View.Direct, false) {
		term := cfg.View.Terminal
		if len(term) == 0 {
			term = host.DefaultPresentation().Terminal
		}
		bins = append(bins, term[0])
	}

	var errs []error
	for _, b := range bins {
		if _, err := resolve(b, l.AppDir, lookPath); err != nil {
			errs = append(errs, err)
		}
	}
	return cfg, errors.Join(errs...)
}

// resolve finds bin as an absolute path, next to the daemon, or on PATH.
func resolve(bin, appDir string, lookPath func(string) (string, error)) (string, error) {
	if filepath.IsAbs(bin) {
		if _, err := os.Stat(bin); err != nil {
			return "", fmt.Errorf("%s: %w", bin, err)
		}
		return bin, nil
	}
	for _, cand := range []string{filepath.Join(appDir, bin), filepath.Join(appDir, exeName(bin))} {
		if _, err := os.Stat(cand); err == nil {
			return cand, nil
		}
	}
	p, err := lookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%s not found next to quickcopyd or on PATH", bin)
	}
	return p, nil
}

func xmlEncoder(w io.Writer) *xml.Encoder {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc
}
