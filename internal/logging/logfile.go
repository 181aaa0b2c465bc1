package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/OsbornePro/quickcopy/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultRotateMB = 10
	defaultKeep     = 10
)

type logOutputs struct {
	writer   *lumberjack.Logger
	toStderr bool
}

func selectLogOutputs(cfg *config.Config) logOutputs {
	toStderr := config.BoolDeref(cfg.LogStderr, true)

	logFile := strings.TrimSpace(cfg.LogFile)
	logDir := strings.TrimSpace(cfg.LogDir)

	if logFile == "" && logDir != "" {
		logFile = filepath.Join(logDir, "quickcopy.log")
	}
	if logFile == "" {
		return logOutputs{toStderr: toStderr}
	}

	rotateMB := cfg.LogRotateMB
	if rotateMB < 1 {
		rotateMB = defaultRotateMB
	}
	keep := cfg.LogKeep
	if keep < 1 {
		keep = defaultKeep
	}

	// lumberjack would create the directory world-readable.
	_ = os.MkdirAll(filepath.Dir(logFile), 0700)

	return logOutputs{
		writer: &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    rotateMB,
			MaxBackups: keep,
			LocalTime:  true,
		},
		toStderr: toStderr,
	}
}
