package application

import (
	"log/slog"

	"github.com/bnema/fasttrack-cli/internal/metrics"
)

type observability struct {
	logger   *slog.Logger
	recorder metrics.Recorder
}

type Option func(*observability)

func WithLogger(logger *slog.Logger) Option {
	return func(o *observability) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *observability) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

func newObservability(opts []Option) observability {
	o := observability{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
