//go:build headless

package window

import (
	"context"
	"errors"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Available reports whether this build carries the window backend.
const Available = false

// ErrUnavailable is returned by Run in headless builds.
var ErrUnavailable = errors.New("window: backend not built (headless tag)")

// PlayFunc runs the engine on screen until ctx is cancelled.
type PlayFunc func(ctx context.Context, screen core.Screen) error

// Run reports that no window backend is available.
func Run(context.Context, core.Config, string, PlayFunc) error {
	return ErrUnavailable
}
