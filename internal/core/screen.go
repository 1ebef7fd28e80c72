package core

// Screen is the display surface contract a backend provides to the engine.
//
// Loops only use IsReady, PreUpdate, Update and Config. Renderers draw into
// Graphic and notify source resolution changes. Backends must tolerate all
// calls coming from the single loop goroutine.
type Screen interface {
	// IsReady reports whether the surface is realized and can be drawn to.
	IsReady() bool

	// PreUpdate prepares the back buffer before a frame is rendered.
	PreUpdate()

	// Update presents the frame (buffer swap).
	Update()

	// Graphic returns the drawing context of the output surface.
	Graphic() *Graphic

	// Config returns the display configuration.
	Config() Config

	// OnSourceChanged is called when the source resolution feeding the screen changes.
	OnSourceChanged(source Resolution)

	ShowCursor()
	HideCursor()

	// AddKeyListener registers a listener receiving key events from the backend.
	AddKeyListener(l KeyListener)

	// RemoveKeyListener unregisters a listener added with AddKeyListener.
	RemoveKeyListener(l KeyListener)
}
