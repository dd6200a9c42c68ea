// Package config holds the immutable settings read once at renderer
// construction, populated through functional options in the style of
// gogpu-gg's NewContext(width, height int, opts ...ContextOption).
package config

// Config is read once by renderer.NewSimpleRenderer and never mutated
// afterward; components that need a setting take it (or a narrower view of
// it) at construction time rather than reaching into a global.
type Config struct {
	// FrameQueueLength is the number of frames the CPU may run ahead of the
	// GPU; ring-buffer reclamation and deletion queues are sized to it.
	FrameQueueLength int

	// RingBufferSize is the byte size of each of the four ring buffers
	// (uniform, dynamic-vertex, dynamic-index, upload). Components that
	// need a different size per ring can still override via their own
	// constructor argument; this is only the SimpleRenderer's default.
	RingBufferSize int

	// AtlasWidth and AtlasHeight size the glyph cache's shelf-packed atlas.
	AtlasWidth  int
	AtlasHeight int

	// EnableValidationLayers turns on Vulkan validation layers at instance
	// creation. Off by default.
	EnableValidationLayers bool

	// EnableViewportTransform gates the per-frame scale/translation derived
	// from the clipped viewport seen (disabled) in the source's image
	// viewer. See SPEC_FULL.md Open Questions: kept false by default,
	// matching the source's own disabled path.
	EnableViewportTransform bool
}

// Default returns the configuration used when no options are supplied.
func Default() Config {
	return Config{
		FrameQueueLength:        2,
		RingBufferSize:          4 << 20,
		AtlasWidth:              2048,
		AtlasHeight:             2048,
		EnableValidationLayers: false,
		EnableViewportTransform: false,
	}
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithFrameQueueLength overrides FrameQueueLength.
func WithFrameQueueLength(n int) Option {
	return func(c *Config) { c.FrameQueueLength = n }
}

// WithRingBufferSize overrides RingBufferSize.
func WithRingBufferSize(n int) Option {
	return func(c *Config) { c.RingBufferSize = n }
}

// WithAtlasSize overrides the glyph atlas dimensions.
func WithAtlasSize(w, h int) Option {
	return func(c *Config) { c.AtlasWidth, c.AtlasHeight = w, h }
}

// WithValidationLayers toggles Vulkan validation layers.
func WithValidationLayers(enabled bool) Option {
	return func(c *Config) { c.EnableValidationLayers = enabled }
}

// WithViewportTransform toggles the viewport scale/translate pass.
func WithViewportTransform(enabled bool) Option {
	return func(c *Config) { c.EnableViewportTransform = enabled }
}

// Resolve applies opts over Default() and returns the final Config.
func Resolve(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
