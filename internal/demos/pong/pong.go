// Package pong is a Pong match against a CPU paddle, drawn in pixels.
// Player 1 controls the left paddle with up/down; with the attract
// parameter set both paddles are CPU controlled.
package pong

import (
	"math"
	"math/rand/v2"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/demos/demo"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ID is the registry identifier.
const ID = "pong"

// Source is the playfield resolution.
var Source = core.NewResolution(160, 120, 60)

// Default game settings
const (
	DefaultPaddleHeight   = 20
	DefaultPaddleWidth    = 3
	DefaultPaddleOffset   = 6 // Distance from edge
	DefaultBallSize       = 3
	DefaultBallSpeed      = 1.2
	DefaultPaddleSpeed    = 2.0
	DefaultWinScore       = 5
	DefaultCPUReactionMin = 0.6  // CPU reaction time (0-1, 1 = perfect)
	DefaultCPUReactionMax = 0.85 // Max CPU skill
	serveTicks            = 60   // 1 second at 60Hz
	overTicks             = 120
)

var (
	fieldColor  = core.RGB(8, 16, 8)
	netColor    = core.RGB(64, 96, 64)
	paddleColor = core.RGB(200, 255, 200)
	ballColor   = core.ColorWhite
	scoreColor  = core.RGB(120, 200, 120)
)

// Game implements the Pong rules.
type Game struct {
	// Paddles
	paddle1Y float64 // Player 1 (left) paddle Y position
	paddle2Y float64 // Player 2/CPU (right) paddle Y position

	// Ball
	ballX  float64
	ballY  float64
	ballVX float64 // Ball velocity X
	ballVY float64 // Ball velocity Y

	// Scores
	score1 int // Player 1 score
	score2 int // Player 2/CPU score

	gameOver   bool
	winner     int  // 1 or 2
	serving    bool // True when waiting to serve
	serveDelay float64

	width, height float64
	winScore      int
	cpuSkill      float64 // CPU reaction skill (0-1)
	attract       bool    // both paddles CPU controlled
	rng           *rand.Rand
	skillTimer    float64
}

// NewGame creates a match on a width x height field.
func NewGame(width, height int, seed int64, attract bool) *Game {
	g := &Game{
		width:    float64(width),
		height:   float64(height),
		winScore: DefaultWinScore,
		cpuSkill: DefaultCPUReactionMin,
		attract:  attract,
		rng:      rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)),
	}
	centerY := g.height/2 - DefaultPaddleHeight/2.0
	g.paddle1Y = centerY
	g.paddle2Y = centerY
	g.startServe(1)
	return g
}

// startServe prepares to serve the ball towards server.
func (g *Game) startServe(server int) {
	g.serving = true
	g.serveDelay = serveTicks

	g.ballX = g.width / 2
	g.ballY = g.height / 2

	speed := DefaultBallSpeed
	if server == 1 {
		g.ballVX = -speed
	} else {
		g.ballVX = speed
	}

	// Random vertical angle
	angle := (g.rng.Float64() - 0.5) * 0.6 // -0.3 to 0.3
	g.ballVY = speed * angle
}

// Step advances the match by extrp updates. up and down move player 1.
func (g *Game) Step(extrp float64, up, down bool) {
	if g.gameOver {
		return
	}
	if g.serving {
		g.serveDelay -= extrp
		if g.serveDelay <= 0 {
			g.serving = false
		}
	}

	maxY := g.height - DefaultPaddleHeight
	if g.attract {
		g.paddle1Y = g.track(g.paddle1Y, g.ballVX < 0, extrp)
	} else {
		if up {
			g.paddle1Y -= DefaultPaddleSpeed * extrp
		}
		if down {
			g.paddle1Y += DefaultPaddleSpeed * extrp
		}
	}
	g.paddle1Y = core.Clamp(g.paddle1Y, 0, maxY)
	g.paddle2Y = core.Clamp(g.track(g.paddle2Y, g.ballVX > 0, extrp), 0, maxY)

	if !g.serving {
		g.updateBall(extrp)
	}

	// Gradually increase CPU skill
	g.skillTimer += extrp
	if g.skillTimer >= 600 {
		g.skillTimer -= 600
		if g.cpuSkill < DefaultCPUReactionMax {
			g.cpuSkill += 0.02
		}
	}
}

// track moves a CPU paddle towards the ball while it approaches.
func (g *Game) track(y float64, approaching bool, extrp float64) float64 {
	if !approaching {
		return y
	}
	diff := g.ballY - DefaultPaddleHeight/2.0 - y
	moveSpeed := DefaultPaddleSpeed * g.cpuSkill * extrp
	if math.Abs(diff) > moveSpeed {
		if diff > 0 {
			return y + moveSpeed
		}
		return y - moveSpeed
	}
	return y
}

// updateBall handles ball physics and collision.
func (g *Game) updateBall(extrp float64) {
	g.ballX += g.ballVX * extrp
	g.ballY += g.ballVY * extrp

	// Bounce off top/bottom walls
	if g.ballY <= 0 {
		g.ballY = 0
		g.ballVY = -g.ballVY
	}
	if bottom := g.height - DefaultBallSize; g.ballY >= bottom {
		g.ballY = bottom
		g.ballVY = -g.ballVY
	}

	paddle1X := float64(DefaultPaddleOffset)
	paddle2X := g.width - DefaultPaddleOffset - DefaultPaddleWidth

	if g.ballX <= paddle1X+DefaultPaddleWidth && g.ballX >= paddle1X-DefaultBallSize && g.ballVX < 0 {
		if hit, ok := g.hitPos(g.paddle1Y); ok {
			g.ballX = paddle1X + DefaultPaddleWidth
			g.bounce(hit)
		}
	}
	if g.ballX+DefaultBallSize >= paddle2X && g.ballX <= paddle2X+DefaultPaddleWidth && g.ballVX > 0 {
		if hit, ok := g.hitPos(g.paddle2Y); ok {
			g.ballX = paddle2X - DefaultBallSize
			g.bounce(hit)
		}
	}

	// Limit ball speed
	maxSpeed := DefaultBallSpeed * 3
	if math.Abs(g.ballVX) > maxSpeed {
		g.ballVX = maxSpeed * math.Copysign(1, g.ballVX)
	}
	if math.Abs(g.ballVY) > maxSpeed/2 {
		g.ballVY = maxSpeed / 2 * math.Copysign(1, g.ballVY)
	}

	if g.ballX < -DefaultBallSize {
		g.score(2)
	}
	if g.ballX > g.width {
		g.score(1)
	}
}

// hitPos returns where the ball touches a paddle at y, 0 (top) to 1 (bottom).
func (g *Game) hitPos(y float64) (float64, bool) {
	center := g.ballY + DefaultBallSize/2.0
	if center < y || center > y+DefaultPaddleHeight {
		return 0, false
	}
	return (center - y) / DefaultPaddleHeight, true
}

func (g *Game) bounce(hitPos float64) {
	g.ballVX = -g.ballVX * 1.02
	// Add spin based on where ball hit paddle
	g.ballVY += (hitPos - 0.5) * 0.6
}

func (g *Game) score(player int) {
	if player == 1 {
		g.score1++
	} else {
		g.score2++
	}
	if g.score1 >= g.winScore || g.score2 >= g.winScore {
		g.gameOver = true
		g.winner = player
		return
	}
	// Serve towards the player who was scored against
	g.startServe(3 - player)
}

// Scores returns both scores.
func (g *Game) Scores() (int, int) { return g.score1, g.score2 }

// Winner returns 1 or 2 once the match is over, 0 before.
func (g *Game) Winner() int { return g.winner }

// Render draws the field.
func (g *Game) Render(dst *core.Graphic) {
	dst.Clear(fieldColor)

	w := dst.Width()
	centerX := w / 2
	dst.SetColor(netColor)
	for y := 0; y < dst.Height(); y += 6 {
		dst.FillRect(centerX, y, 1, 3)
	}

	dst.SetColor(paddleColor)
	dst.FillRect(DefaultPaddleOffset, int(g.paddle1Y), DefaultPaddleWidth, DefaultPaddleHeight)
	dst.FillRect(w-DefaultPaddleOffset-DefaultPaddleWidth, int(g.paddle2Y), DefaultPaddleWidth, DefaultPaddleHeight)

	// Blink during serve
	if !g.serving || int(g.serveDelay/10)%2 == 0 {
		dst.SetColor(ballColor)
		dst.FillRect(int(g.ballX), int(g.ballY), DefaultBallSize, DefaultBallSize)
	}

	// Scores as pips either side of the net
	dst.SetColor(scoreColor)
	for i := 0; i < g.score1; i++ {
		dst.FillRect(centerX-8-i*5, 3, 3, 3)
	}
	for i := 0; i < g.score2; i++ {
		dst.FillRect(centerX+6+i*5, 3, 3, 3)
	}
}

// Scene runs a match inside a sequence.
type Scene struct {
	demo.Base
	Game *Game
	over float64
}

// New creates the pong sequence. Parameters: attract (any value) lets the
// CPU play both sides.
func New(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	_, attract := args.Params["attract"]
	s := &Scene{Game: NewGame(Source.Width, Source.Height, args.Seed, attract)}
	return demo.Create(ctx, ID, Source, s, args)
}

func (s *Scene) Load() error { return nil }

func (s *Scene) Update(extrp float64) {
	defer s.Keys.Clear()
	if s.Tick() {
		s.Finish()
		return
	}
	// Terminal backends release keys at once, so hits count as held.
	up := s.Keys.IsDown(core.KeyUp) || s.Keys.JustPressed(core.KeyUp)
	down := s.Keys.IsDown(core.KeyDown) || s.Keys.JustPressed(core.KeyDown)
	s.Game.Step(extrp, up, down)
	if s.Game.gameOver {
		s.over += extrp
		if s.over >= overTicks {
			s.Seq.Logger().Info("match over", "winner", s.Game.winner, "score1", s.Game.score1, "score2", s.Game.score2)
			s.Finish()
		}
	}
}

func (s *Scene) Render(g *core.Graphic) {
	s.Game.Render(g)
}

func init() {
	registry.Register(registry.Info{
		ID:          ID,
		Title:       "Pong",
		Description: "Classic Pong against the CPU",
	}, New)
}
