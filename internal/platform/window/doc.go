// Package window is the windowed core.Screen backend built on ebiten.
//
// Ebiten only presents frames and reports keys: the engine loop keeps
// owning update and render pacing on its own goroutine, and each Update
// hands the finished frame to the next ebiten Draw. Building with the
// headless tag drops the ebiten dependency.
package window
