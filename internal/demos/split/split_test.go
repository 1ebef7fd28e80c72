package split

import (
	"testing"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/loop"
	"github.com/vovakirdan/rastercade/internal/platform/headless"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

func testContext() *sequence.Context {
	return &sequence.Context{
		Config: core.NewConfig(core.NewResolution(640, 480, 60), 32, false),
		Policy: loop.PolicyLocked,
		Clock:  loop.NewManualClock(10 * time.Microsecond),
	}
}

func TestLayouts(t *testing.T) {
	tests := []struct {
		layout string
		want   sequence.Split
		// points are screen points with the viewport they belong to
		points [][3]int
	}{
		{"four", sequence.SplitFour, [][3]int{{639, 0, 1}, {0, 479, 2}, {639, 479, 3}}},
		{"horizontal", sequence.SplitTwoHorizontal, [][3]int{{639, 240, 1}}},
		{"vertical", sequence.SplitTwoVertical, [][3]int{{320, 479, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			ctx := testContext()
			sq, err := New(ctx, sequence.Args{Params: map[string]string{"layout": tt.layout, "frames": "3"}})
			if err != nil {
				t.Fatal(err)
			}
			seq := sq.(*sequence.Sequence)
			screen := headless.New(ctx.Config)
			if err := seq.Start(screen); err != nil {
				t.Fatalf("Start: %v", err)
			}
			if seq.Split() != tt.want {
				t.Fatalf("split = %v, want %v", seq.Split(), tt.want)
			}
			if len(seq.Renderers()) != tt.want.Count() {
				t.Fatalf("renderers = %d, want %d", len(seq.Renderers()), tt.want.Count())
			}
			for _, p := range tt.points {
				if got := screen.PixelAt(p[0], p[1]); got != Backgrounds[p[2]] {
					t.Errorf("pixel (%d,%d) = %#x, want background of viewport %d", p[0], p[1], uint32(got), p[2])
				}
			}
		})
	}
}

func TestLayoutUnderDirectConfig(t *testing.T) {
	ctx := testContext()
	ctx.Direct = true
	sq, err := New(ctx, sequence.Args{Params: map[string]string{"layout": "four", "frames": "2"}})
	if err != nil {
		t.Fatal(err)
	}
	seq := sq.(*sequence.Sequence)
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i, r := range seq.Renderers() {
		if r.Direct() {
			t.Fatalf("viewport %d renders direct", i)
		}
	}
	if got := screen.PixelAt(639, 479); got != Backgrounds[3] {
		t.Fatalf("last viewport pixel = %#x, want its background", uint32(got))
	}
}

func TestUnknownLayout(t *testing.T) {
	if _, err := New(testContext(), sequence.Args{Params: map[string]string{"layout": "nine"}}); err == nil {
		t.Fatal("expected an error for an unknown layout")
	}
}

func TestBoxBounces(t *testing.T) {
	b := box{x: 140, y: 10, vx: 10, vy: 0}
	b.move(160, 120, 1)
	if b.vx >= 0 {
		t.Error("box did not bounce off the right edge")
	}
	if b.x > 160-boxSize {
		t.Errorf("box x = %v, outside the viewport", b.x)
	}
}
