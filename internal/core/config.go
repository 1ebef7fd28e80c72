package core

// Config describes the display surface the engine renders to.
// It is owned by the embedding application and read-only to loops and renderers.
type Config struct {
	Output   Resolution // Output surface size and refresh rate
	Depth    int        // Color depth in bits (informational, 32 for RGBA surfaces)
	Windowed bool       // Whether the surface is a window; only windowed surfaces are paced by the locked loop
}

// NewConfig creates a display configuration for the given output.
func NewConfig(output Resolution, depth int, windowed bool) Config {
	output.mustBeValid("core.NewConfig")
	return Config{
		Output:   output,
		Depth:    depth,
		Windowed: windowed,
	}
}

// DefaultConfig returns a windowed 640x480@60 configuration.
func DefaultConfig() Config {
	return Config{
		Output:   Resolution{Width: 640, Height: 480, Rate: 60},
		Depth:    32,
		Windowed: true,
	}
}
