// Package core provides the value types shared by every part of the engine:
// resolutions, display configuration, transforms, packed colors and the
// Graphic drawing context. It also declares the Screen contract consumed by
// loops and renderers. Nothing here knows about a concrete display backend.
package core
