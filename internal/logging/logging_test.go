package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactLine_RegisteredSecret(t *testing.T) {
	AddSecret("hunter2-abcdef")
	AddSecret("  ")

	got := RedactLine("token is hunter2-abcdef here\n")
	assert.Equal(t, "token is [REDACTED] here\n", got)
}

func TestRedactLine_KeyValueHints(t *testing.T) {
	got := RedactLine(`password=abc dbpass=xyz url=http://x?token=AAA&fp=1`)
	assert.Equal(t, `password=[REDACTED] dbpass=[REDACTED] url=http://x?token=[REDACTED]&fp=1`, got)
}

func TestRedactLine_LongBlob(t *testing.T) {
	blob := strings.Repeat("A", 130)
	got := RedactLine("key " + blob + " end")
	assert.Equal(t, "key [REDACTED_BLOB] end", got)

	short := strings.Repeat("B", 20)
	assert.Equal(t, "key "+short, RedactLine("key "+short))
}

func TestSanitizingWriter_BuffersPartialLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewSanitizingWriter(&buf)

	_, err := w.Write([]byte("secret=abc"))
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "no output before newline")

	_, err = w.Write([]byte("def done\nnext"))
	require.NoError(t, err)
	assert.Equal(t, "secret=[REDACTED] done\n", buf.String())
}

func TestSafePreview(t *testing.T) {
	assert.Equal(t, `""`, SafePreview(""))
	assert.Equal(t, `"ab" (len=2)`, SafePreview("ab"))
	assert.Equal(t, `"abc..." (len=6)`, SafePreview("abcdef"))
}

func TestInit_WritesRedactedFile(t *testing.T) {
	dir := t.TempDir()
	off := false
	cfg := &config.Config{LogDir: dir, LogStderr: &off}
	cfg.ApplyDefaults()

	require.NoError(t, Init(cfg))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	logrus.WithField("note", "password=topsecret").Info("hello")

	data, err := os.ReadFile(filepath.Join(dir, "quickcopy.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), "topsecret")
}

func TestSelectLogOutputs_RotationFromConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := &config.Config{LogDir: dir, LogRotateMB: 3, LogKeep: 2}

	outs := selectLogOutputs(cfg)
	require.NotNil(t, outs.writer)
	assert.True(t, outs.toStderr)
	assert.Equal(t, filepath.Join(dir, "quickcopy.log"), outs.writer.Filename)
	assert.Equal(t, 3, outs.writer.MaxSize)
	assert.Equal(t, 2, outs.writer.MaxBackups)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestSelectLogOutputs_Defaults(t *testing.T) {
	off := false
	outs := selectLogOutputs(&config.Config{LogFile: filepath.Join(t.TempDir(), "q.log"), LogStderr: &off})
	require.NotNil(t, outs.writer)
	assert.False(t, outs.toStderr)
	assert.Equal(t, defaultRotateMB, outs.writer.MaxSize)
	assert.Equal(t, defaultKeep, outs.writer.MaxBackups)

	assert.Nil(t, selectLogOutputs(&config.Config{}).writer)
}
