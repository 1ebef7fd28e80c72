package sequence

import "time"

// Tick measures simulated time. Each update advances it by the duration the
// update represents (extrp nominal steps at the current rate), so it stays
// close to wall time under every loop policy.
type Tick struct {
	started bool
	elapsed float64 // nanoseconds
}

// Start begins counting if the tick is not already started.
func (t *Tick) Start() {
	t.started = true
}

// Stop freezes the tick and clears its elapsed time.
func (t *Tick) Stop() {
	t.started = false
	t.elapsed = 0
}

// Restart clears the elapsed time and keeps counting.
func (t *Tick) Restart() {
	t.started = true
	t.elapsed = 0
}

// Update adds one update worth of simulated time.
func (t *Tick) Update(extrp float64, rate int) {
	if !t.started || rate <= 0 {
		return
	}
	t.elapsed += extrp * float64(time.Second) / float64(rate)
}

// Elapsed returns the simulated time counted so far.
func (t *Tick) Elapsed() time.Duration {
	return time.Duration(t.elapsed)
}

// ElapsedTime reports whether at least d of simulated time has passed.
func (t *Tick) ElapsedTime(d time.Duration) bool {
	return t.started && t.elapsed >= float64(d)
}
