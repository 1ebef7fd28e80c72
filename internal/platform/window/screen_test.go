//go:build !headless

package window

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/vovakirdan/rastercade/internal/core"
)

func testConfig() core.Config {
	return core.Config{Output: core.Resolution{Width: 4, Height: 2, Rate: 60}, Depth: 32, Windowed: true}
}

func TestNotReadyBeforeFirstDraw(t *testing.T) {
	s := NewScreen(testConfig(), "test")
	if s.IsReady() {
		t.Fatal("window ready before it drew a frame")
	}
	w, h := ebitenGame{s: s}.Layout(1920, 1080)
	if w != 4 || h != 2 {
		t.Errorf("Layout = %dx%d, want output size 4x2", w, h)
	}
}

func TestUpdateHandsFrameToWindow(t *testing.T) {
	s := NewScreen(testConfig(), "test")
	s.PreUpdate()
	s.Graphic().SetColor(core.ColorGreen)
	s.Graphic().FillRect(0, 0, 4, 2)
	s.Update()

	if s.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", s.Frames())
	}
	if !s.dirty {
		t.Fatal("frame not marked for the next draw")
	}
	// Green in RGBA byte order.
	if s.front[0] != 0 || s.front[1] != 0xFF || s.front[2] != 0 || s.front[3] != 0xFF {
		t.Errorf("first pixel = %v, want opaque green", s.front[:4])
	}
}

func TestKeyTableCoversEngineKeys(t *testing.T) {
	want := map[core.Key]bool{
		core.KeyUp: false, core.KeyDown: false, core.KeyLeft: false, core.KeyRight: false,
		core.KeySpace: false, core.KeyEnter: false, core.KeyEsc: false,
	}
	for _, k := range keyTable {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("engine key %q has no ebiten binding", k)
		}
	}
	if keyTable[ebiten.KeyEscape] != core.KeyEsc {
		t.Error("escape is not mapped to esc")
	}
}

func TestDispatchPressRelease(t *testing.T) {
	s := NewScreen(testConfig(), "test")
	keys := core.NewKeys()
	s.AddKeyListener(keys)

	s.dispatch(core.KeyLeft, true)
	if !keys.IsDown(core.KeyLeft) {
		t.Fatal("left not held after press")
	}
	s.dispatch(core.KeyLeft, false)
	if keys.IsDown(core.KeyLeft) {
		t.Fatal("left still held after release")
	}
}

func TestCursorAndClose(t *testing.T) {
	s := NewScreen(testConfig(), "test")
	s.HideCursor()
	if s.cursor {
		t.Error("cursor still requested after HideCursor")
	}
	s.ShowCursor()
	if !s.cursor {
		t.Error("cursor not requested after ShowCursor")
	}

	s.Close()
	if err := (ebitenGame{s: s}).Update(); err != ebiten.Termination {
		t.Errorf("Update after Close = %v, want ebiten.Termination", err)
	}
}
