package dialogue

import "log/slog"

type engineOptions struct {
	logger     *slog.Logger
	completion string
}

type Option func(*engineOptions)

// WithLogger sets the logger used for extraction and persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithCompletionMessage overrides the catalog's completion message.
func WithCompletionMessage(message string) Option {
	return func(o *engineOptions) {
		o.completion = message
	}
}

func newEngineOptions(opts ...Option) engineOptions {
	o := engineOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
