package segment

import (
	"log/slog"

	"github.com/joshuapare/slabshm/internal/format"
	"github.com/joshuapare/slabshm/internal/logger"
)

// Option configures Create and Attach.
type Option func(*config)

type config struct {
	flags uint32
	log   *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{log: logger.L}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.New(logger.Options{})
	}
	return cfg
}

// WithForwardCoalesce makes Free also merge the free run that directly follows
// the released run. The policy is recorded in the header at Create time and
// applies to every process attached to the segment; on Attach the option is
// ignored in favor of the stored flag.
func WithForwardCoalesce() Option {
	return func(c *config) { c.flags |= format.FlagForwardCoalesce }
}

// WithLogger routes lifecycle logging to l instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}
