package headless

import (
	"image"
	"testing"

	"github.com/vovakirdan/rastercade/internal/core"
)

func TestScreenLifecycle(t *testing.T) {
	cfg := core.NewConfig(core.NewResolution(8, 4, 60), 32, true)
	var presented int
	s := New(cfg, WithBackground(core.ColorBlue), WithPresent(func(img *image.RGBA) {
		presented++
		if got := img.Bounds().Dx(); got != 8 {
			t.Errorf("present width = %d, want 8", got)
		}
	}))

	if !s.IsReady() {
		t.Fatal("new screen should be ready")
	}
	s.PreUpdate()
	if got := s.PixelAt(3, 2); got != core.ColorBlue {
		t.Fatalf("PreUpdate should clear to background, got %#x", uint32(got))
	}

	s.Graphic().SetColor(core.ColorRed)
	s.Graphic().SetPixel(1, 1)
	s.Update()
	if s.Frames() != 1 || presented != 1 {
		t.Fatalf("frames = %d, presented = %d, want 1/1", s.Frames(), presented)
	}

	snap := s.Snapshot()
	s.PreUpdate()
	if got := core.PixelAt(snap, 1, 1); got != core.ColorRed {
		t.Fatalf("snapshot must survive the next clear, got %#x", uint32(got))
	}
}

func TestScreenNotReady(t *testing.T) {
	s := New(core.DefaultConfig(), NotReady())
	if s.IsReady() {
		t.Fatal("screen should start not ready")
	}
	s.SetReady(true)
	if !s.IsReady() {
		t.Fatal("SetReady(true) ignored")
	}
}

func TestScreenDispatchesKeys(t *testing.T) {
	s := New(core.DefaultConfig())
	keys := core.NewKeys()
	s.AddKeyListener(keys)

	s.Press(core.KeySpace)
	if !keys.IsDown(core.KeySpace) {
		t.Fatal("press not dispatched")
	}
	s.Release(core.KeySpace)
	if keys.IsDown(core.KeySpace) {
		t.Fatal("release not dispatched")
	}
}

func TestScreenRemovesKeyListener(t *testing.T) {
	s := New(core.DefaultConfig())
	kept, removed := core.NewKeys(), core.NewKeys()
	s.AddKeyListener(kept)
	s.AddKeyListener(removed)
	s.RemoveKeyListener(removed)

	s.Press(core.KeyUp)
	if !kept.IsDown(core.KeyUp) {
		t.Fatal("remaining listener lost the press")
	}
	if removed.IsDown(core.KeyUp) {
		t.Fatal("removed listener still receives keys")
	}
}

func TestScreenSourceAndCursor(t *testing.T) {
	s := New(core.DefaultConfig())
	src := core.NewResolution(320, 240, 60)
	s.OnSourceChanged(src)
	if s.Source() != src {
		t.Fatalf("Source() = %v, want %v", s.Source(), src)
	}
	s.HideCursor()
	if s.CursorVisible() {
		t.Fatal("cursor should be hidden")
	}
	s.ShowCursor()
	if !s.CursorVisible() {
		t.Fatal("cursor should be visible")
	}
}
