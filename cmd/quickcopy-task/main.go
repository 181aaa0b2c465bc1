// quickcopy-task registers quickcopyd as a per-user logon task on Windows.
// The daemon has to run in the user's desktop session to open windows, which
// a session-0 service cannot do.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const taskName = "QuickCopy"

var (
	appDir     string
	configPath string
)

// schtasks runs the Task Scheduler CLI; replaced in tests.
var schtasks = func(args ...string) error {
	cmd := exec.Command("schtasks", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func currentUser() (string, error) {
	out, err := exec.Command("whoami").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func layout() (Layout, error) {
	app, err := filepath.Abs(appDir)
	if err != nil {
		return Layout{}, err
	}
	cfg, err := filepath.Abs(configPath)
	if err != nil {
		return Layout{}, err
	}
	return Layout{AppDir: app, ConfigPath: cfg}, nil
}

var rootCmd = &cobra.Command{
	Use:          "quickcopy-task",
	Short:        "Run quickcopyd at logon in the user's desktop session",
	SilenceUsage: true,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Check the install and register the logon task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := layout()
		if err != nil {
			return err
		}
		cfg, err := CheckLayout(l, exec.LookPath)
		if err != nil {
			return err
		}
		user, err := currentUser()
		if err != nil {
			return fmt.Errorf("whoami failed: %w", err)
		}
		return install(NewTask(user, l), cfg.ListenAddr)
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the logon task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = schtasks("/End", "/TN", taskName)
		if err := schtasks("/Delete", "/TN", taskName, "/F"); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		logrus.WithField("task", taskName).Info("logon task removed")
		return nil
	},
}

var xmlCmd = &cobra.Command{
	Use:   "xml",
	Short: "Print the task definition without registering it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := layout()
		if err != nil {
			return err
		}
		user, err := currentUser()
		if err != nil {
			return fmt.Errorf("whoami failed: %w", err)
		}
		enc := xmlEncoder(cmd.OutOrStdout())
		return enc.Encode(NewTask(user, l))
	},
}

func install(t *Task, listen string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp("", "quickcopy-task-*.xml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write task xml: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	_ = schtasks("/Delete", "/TN", taskName, "/F")
	if err := schtasks("/Create", "/TN", taskName, "/XML", tmp.Name(), "/F"); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	if err := schtasks("/Run", "/TN", taskName); err != nil {
		logrus.WithError(err).Warn("task registered but not started; it runs at next logon")
	}

	logrus.WithFields(logrus.Fields{
		"task":   taskName,
		"exe":    t.Actions.Exec.Command,
		"listen": listen,
	}).Info("logon task installed")
	return nil
}

func init() {
	exe, _ := os.Executable()
	rootCmd.PersistentFlags().StringVar(&appDir, "app-dir", filepath.Dir(exe), "directory holding quickcopyd and quickcopy-view")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "quickcopy.yaml", "config file the daemon runs with")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(xmlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
