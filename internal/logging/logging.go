// Package logging builds the process-wide zerolog logger from
// configuration, optionally shipping entries to Loki alongside the
// local stream.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/grafana/loki-client-go/loki"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/pjw57/nowspinning/internal/config"
)

// Setup creates a zerolog logger according to the provided
// configuration. The returned cleanup flushes and stops any remote
// sink and must be called on shutdown.
func Setup(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	out := localWriter(cfg.Format)
	cleanup := func() {}

	if cfg.Loki.Enabled {
		sink, stop, err := newLokiSink(cfg.Loki)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		out = zerolog.MultiLevelWriter(out, sink)
		cleanup = stop
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, cleanup, nil
}

// parseLevel maps the configured level name onto a zerolog level. An
// empty name selects info.
func parseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("failed to parse log level %q: %w", name, err)
	}
	return level, nil
}

// localWriter picks the stderr encoding: human-readable console output
// for "text", raw JSON otherwise.
func localWriter(format string) io.Writer {
	if strings.EqualFold(format, "text") {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return os.Stderr
}

func newLokiSink(cfg config.LokiConfig) (*lokiSink, func(), error) {
	if cfg.URL == "" {
		return nil, nil, errors.New("logging: loki url is required")
	}
	lokiCfg, err := loki.NewDefaultConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build loki config: %w", err)
	}
	client, err := loki.New(lokiCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start loki client: %w", err)
	}
	sink := &lokiSink{handler: client, labels: lokiLabels(cfg.Labels)}
	return sink, client.Stop, nil
}

// lokiLabels builds the stream label set. Every stream carries an app
// label; configured labels are added on top and may replace it.
func lokiLabels(overrides map[string]string) model.LabelSet {
	labels := model.LabelSet{"app": "nowspinning"}
	for name, value := range overrides {
		labels[model.LabelName(name)] = model.LabelValue(value)
	}
	return labels
}

// entryHandler is the slice of the loki client the sink depends on.
type entryHandler interface {
	Handle(labels model.LabelSet, t time.Time, entry string) error
}

// lokiSink adapts the line-oriented zerolog output stream to loki's
// entry API. Each Write carries exactly one JSON event.
type lokiSink struct {
	handler entryHandler
	labels  model.LabelSet
}

func (s *lokiSink) Write(p []byte) (int, error) {
	entry := strings.TrimRight(string(p), "\n")
	if entry == "" {
		return len(p), nil
	}
	return len(p), s.handler.Handle(s.labels, time.Now(), entry)
}
