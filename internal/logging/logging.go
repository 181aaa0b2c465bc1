// Package logging configures logrus for the daemon and the view. Every line
// passes through a sanitizing writer that strips registered secrets and
// anything that looks like key material before it reaches a sink.
package logging

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/sirupsen/logrus"
)

var (
	redactMu sync.RWMutex
	secrets  = map[string]struct{}{}

	secretReplacer atomic.Value // stores *strings.Replacer
	redactEnabled  atomic.Bool
)

func init() {
	redactEnabled.Store(true)
	secretReplacer.Store(strings.NewReplacer())
}

// Init points logrus at the outputs selected by cfg. It may be called again
// after a config change; the previous log file is left to the GC.
func Init(cfg *config.Config) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})

	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	redactEnabled.Store(config.BoolDeref(cfg.LogRedact, true))

	outs := selectLogOutputs(cfg)
	var dst io.Writer
	switch {
	case outs.writer != nil && outs.toStderr:
		dst = io.MultiWriter(os.Stderr, outs.writer)
	case outs.writer != nil:
		dst = outs.writer
	case outs.toStderr:
		dst = os.Stderr
	default:
		dst = io.Discard
	}
	logrus.SetOutput(NewSanitizingWriter(dst))
	return nil
}

// AddSecret registers a value that must never appear in a log line.
func AddSecret(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	redactMu.Lock()
	defer redactMu.Unlock()
	if _, ok := secrets[s]; ok {
		return
	}
	secrets[s] = struct{}{}
	rebuildSecretReplacerLocked()
}

func rebuildSecretReplacerLocked() {
	pairs := make([]string, 0, len(secrets)*2)
	for sec := range secrets {
		pairs = append(pairs, sec, "[REDACTED]")
	}
	secretReplacer.Store(strings.NewReplacer(pairs...))
}

// SafePreview renders at most the first three runes of s plus its length.
func SafePreview(s string) string {
	const max = 3
	runes := []rune(s)
	n := len(runes)
	if n == 0 {
		return `""`
	}
	if n > max {
		return `"` + string(runes[:max]) + `..." (len=` + strconv.Itoa(n) + ")"
	}
	return `"` + string(runes) + `" (len=` + strconv.Itoa(n) + ")"
}

type sanitizingWriter struct {
	dst io.Writer
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewSanitizingWriter buffers writes into lines and redacts each line before
// forwarding it to dst.
func NewSanitizingWriter(dst io.Writer) io.Writer {
	return &sanitizingWriter{dst: dst}
}

func (w *sanitizingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	_, _ = w.buf.Write(p)

	for {
		b := w.buf.Bytes()
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			break
		}
		line := string(b[:i+1])
		w.buf.Next(i + 1)

		if _, err := io.WriteString(w.dst, RedactLine(line)); err != nil {
			return n, err
		}
	}
	return n, nil
}

// RedactLine applies every redaction rule to one log line.
func RedactLine(line string) string {
	if !redactEnabled.Load() {
		return line
	}

	out := line
	if r, ok := secretReplacer.Load().(*strings.Replacer); ok {
		out = r.Replace(out)
	}
	out = redactLongBlobs(out)
	out = redactKeyValueHints(out)
	return out
}

func redactLongBlobs(s string) string {
	const minLen = 120
	const blobChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/=_-"

	var b strings.Builder
	b.Grow(len(s))

	runStart := -1
	flush := func(end int) {
		if end-runStart >= minLen {
			b.WriteString("[REDACTED_BLOB]")
		} else {
			b.WriteString(s[runStart:end])
		}
		runStart = -1
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(blobChars, s[i]) >= 0 {
			if runStart == -1 {
				runStart = i
			}
			continue
		}
		if runStart != -1 {
			flush(i)
		}
		b.WriteByte(s[i])
	}
	if runStart != -1 {
		flush(len(s))
	}
	return b.String()
}

// Keys whose values are always redacted, wherever they appear.
var hintKeys = []string{
	"password=", "pass=", "secret=", "token=", "dbpass=", "credential_json=",
}

func redactKeyValueHints(s string) string {
	out := s
	for _, k := range hintKeys {
		from := 0
		for {
			lo := strings.ToLower(out[from:])
			idx := strings.Index(lo, k)
			if idx < 0 {
				break
			}
			start := from + idx + len(k)
			if strings.HasPrefix(out[start:], "[REDACTED") {
				from = start
				continue
			}
			end := start
			for end < len(out) && !isHintDelim(out[end]) {
				end++
			}
			if start == end {
				from = start
				continue
			}
			out = out[:start] + "[REDACTED]" + out[end:]
			from = start + len("[REDACTED]")
		}
	}
	return out
}

func isHintDelim(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', ',', '"', '\'', '&', '?', '#', ';', ')', ']', '}':
		return true
	}
	return false
}
