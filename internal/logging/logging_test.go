package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestConfigureFiltersByLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Configure("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "respondent", "a1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "respondent=a1")

	SetLevel(slog.LevelDebug)
	slog.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
