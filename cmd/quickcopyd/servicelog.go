// cmd/quickcopyd/servicelog.go
package main

import (
	"strings"

	"github.com/OsbornePro/quickcopy/internal/logging"
	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
)

// serviceLogHook forwards logrus entries to the platform service log (Event
// Log on Windows, syslog elsewhere) when quickcopyd runs unattended.
type serviceLogHook struct {
	logger service.Logger
	levels []logrus.Level
}

func newServiceLogHook(s service.Service, min logrus.Level) (logrus.Hook, error) {
	logger, err := s.Logger(nil)
	if err != nil {
		return nil, err
	}
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	return &serviceLogHook{logger: logger, levels: levels}, nil
}

func (h *serviceLogHook) Levels() []logrus.Level {
	return h.levels
}

func (h *serviceLogHook) Fire(e *logrus.Entry) error {
	line, err := e.String()
	if err != nil {
		return err
	}
	// Hooks bypass the output writer, so redact here too.
	line = strings.TrimRight(logging.RedactLine(line), "\n")

	switch e.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return h.logger.Error(line)
	case logrus.WarnLevel:
		return h.logger.Warning(line)
	default:
		return h.logger.Info(line)
	}
}
