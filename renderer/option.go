package renderer

import (
	"github.com/NOT-REAL-GAMES/bindless/config"
	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
)

// options collects everything NewSimpleRenderer needs beyond the Device and
// Surface it's handed directly.
type options struct {
	configOpts []config.Option
	logger     elog.Logger
	metrics    *Metrics
}

// Option configures a SimpleRenderer at construction, generalizing
// gogpu-gg's NewContext(width, height int, opts ...ContextOption) pattern:
// config.Option covers the shared Config fields (§10.3), Option layers the
// renderer-only ambient collaborators (logger, metrics) on top.
type Option func(*options)

// WithConfig appends config.Options applied when resolving the renderer's
// immutable Config.
func WithConfig(opts ...config.Option) Option {
	return func(o *options) { o.configOpts = append(o.configOpts, opts...) }
}

// WithLogger overrides the default zerolog-backed Logger.
func WithLogger(log elog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithMetrics attaches a Metrics recorder; omitted, the renderer records
// nothing.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func resolveOptions(opts ...Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = elog.Default()
	}
	return o
}
