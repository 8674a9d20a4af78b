package bridge

import (
	"fmt"
	"io"
	"os"

	"devdisplay/internal/config"
	"devdisplay/internal/display"
	"devdisplay/internal/logging"
	"devdisplay/internal/notifier"
	"devdisplay/internal/output"

	"go.uber.org/zap"
)

// SinkFor builds the sink named by cfg.Sinks. Line sinks write to w, or to
// the stream named by cfg.Output when w is nil.
func SinkFor(cfg *config.Config, w io.Writer) (display.Sink, error) {
	if w == nil {
		w = os.Stdout
		if cfg.Output == "stderr" {
			w = os.Stderr
		}
	}

	sinks := make(display.Multi, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		switch name {
		case "console":
			sinks = append(sinks, output.NewConsole(w))
		case "json":
			sinks = append(sinks, output.NewJSON(w))
		case "desktop":
			sinks = append(sinks, notifier.New(cfg.AppName))
		case "discard":
			sinks = append(sinks, display.Discard)
		default:
			return nil, fmt.Errorf("%w: %q", display.ErrUnknownSink, name)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// FromConfig wires a Bridge, its sink and its logger from cfg.
func FromConfig(cfg *config.Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	sink, err := SinkFor(cfg, nil)
	if err != nil {
		return nil, err
	}
	return New(sink, WithLogger(log), WithMaxLength(cfg.MaxLength)), nil
}

// Default loads configuration from the environment and builds a Bridge. It
// always returns a usable Bridge: on any configuration problem it logs the
// error and falls back to config.Default.
func Default() *Bridge {
	cfg, err := config.FromEnv()
	if err == nil {
		var b *Bridge
		if b, err = FromConfig(cfg); err == nil {
			return b
		}
	}

	def := config.Default()
	log := logging.Must(def.LogLevel, def.LogFormat)
	log.Error("falling back to default config",
		zap.String("path", os.Getenv(config.EnvPath)),
		zap.Error(err),
	)
	return New(output.NewConsole(os.Stdout), WithLogger(log), WithMaxLength(def.MaxLength))
}
