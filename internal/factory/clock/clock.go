// Package clock implements the beat dispatcher that drives the factory.
//
// Every tick advances the beat index modulo the measure length and then
// runs three explicit queues in a fixed order: machine handlers, beat
// handlers, belt handlers. Machines therefore always observe and mutate
// state before belts move in the same beat.
package clock

import (
	"context"
	"time"
)

// Handler receives the beat index of the tick being dispatched.
type Handler func(beat int)

type subscription struct {
	fn        Handler
	cancelled bool
}

// Clock is a single-threaded beat dispatcher. It is not safe for concurrent
// use; drive it from one goroutine.
type Clock struct {
	bpm             float64
	beatsPerMeasure int

	beat  int
	ticks uint64
	acc   float64

	machines []*subscription
	beats    []*subscription
	belts    []*subscription

	dispatching bool
	after       []func()
}

// DefaultBPM is used when New is given a non-positive tempo.
const DefaultBPM = 120

// New creates a clock. The first tick dispatches beat 0.
func New(bpm float64, beatsPerMeasure int) *Clock {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	if beatsPerMeasure < 1 {
		beatsPerMeasure = 4
	}
	return &Clock{
		bpm:             bpm,
		beatsPerMeasure: beatsPerMeasure,
		beat:            -1,
	}
}

// OnMachines subscribes to the machine phase.
func (c *Clock) OnMachines(fn Handler) (cancel func()) {
	return c.subscribe(&c.machines, fn)
}

// OnBeat subscribes to the beat index notification.
func (c *Clock) OnBeat(fn Handler) (cancel func()) {
	return c.subscribe(&c.beats, fn)
}

// OnBelts subscribes to the belt phase.
func (c *Clock) OnBelts(fn Handler) (cancel func()) {
	return c.subscribe(&c.belts, fn)
}

func (c *Clock) subscribe(queue *[]*subscription, fn Handler) func() {
	s := &subscription{fn: fn}
	*queue = append(*queue, s)
	return func() {
		if s.cancelled {
			return
		}
		s.cancelled = true
		if c.dispatching {
			c.AfterTick(func() { c.compact(queue) })
			return
		}
		c.compact(queue)
	}
}

func (c *Clock) compact(queue *[]*subscription) {
	kept := (*queue)[:0]
	for _, s := range *queue {
		if !s.cancelled {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(*queue); i++ {
		(*queue)[i] = nil
	}
	*queue = kept
}

// AfterTick runs fn once the current tick finishes, or immediately when no
// tick is in flight. Structural changes requested from inside a handler go
// through here.
func (c *Clock) AfterTick(fn func()) {
	if !c.dispatching {
		fn()
		return
	}
	c.after = append(c.after, fn)
}

// Tick dispatches one beat immediately. It reports false when called from
// inside a handler, in which case nothing happens.
func (c *Clock) Tick() bool {
	if c.dispatching {
		return false
	}
	c.dispatching = true
	c.beat = (c.beat + 1) % c.beatsPerMeasure
	c.ticks++
	beat := c.beat

	dispatch(c.machines, beat)
	dispatch(c.beats, beat)
	dispatch(c.belts, beat)

	c.dispatching = false
	for len(c.after) > 0 {
		pending := c.after
		c.after = nil
		for _, fn := range pending {
			fn()
		}
	}
	return true
}

func dispatch(queue []*subscription, beat int) {
	snapshot := append([]*subscription(nil), queue...)
	for _, s := range snapshot {
		if !s.cancelled {
			s.fn(beat)
		}
	}
}

// Advance adds dt seconds of simulation time and fires every beat that
// became due. It returns the number of beats fired. Calls made from inside
// a tick are ignored and leave the accumulated time untouched.
func (c *Clock) Advance(dt float64) int {
	if dt <= 0 || c.dispatching {
		return 0
	}
	c.acc += dt
	fired := 0
	for {
		interval := c.IntervalSeconds()
		if c.acc < interval {
			break
		}
		c.acc -= interval
		if c.Tick() {
			fired++
		}
	}
	return fired
}

// SetBPM changes the tempo. The accumulated phase is kept, so the change
// applies from the next tick.
func (c *Clock) SetBPM(bpm float64) {
	if bpm > 0 {
		c.bpm = bpm
	}
}

// BPM returns the tempo.
func (c *Clock) BPM() float64 { return c.bpm }

// BeatsPerMeasure returns the measure length.
func (c *Clock) BeatsPerMeasure() int { return c.beatsPerMeasure }

// IntervalSeconds returns the time between beats in seconds.
func (c *Clock) IntervalSeconds() float64 {
	return 60 / c.bpm
}

// Interval returns the time between beats.
func (c *Clock) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds() * float64(time.Second))
}

// Beat returns the index of the last dispatched beat, -1 before the first.
func (c *Clock) Beat() int { return c.beat }

// Ticks returns the number of ticks dispatched.
func (c *Clock) Ticks() uint64 { return c.ticks }

// Dispatching reports whether a tick is in flight.
func (c *Clock) Dispatching() bool { return c.dispatching }

// Restore sets the beat position, for loading snapshots.
func (c *Clock) Restore(beat int, ticks uint64) {
	if beat < -1 || beat >= c.beatsPerMeasure {
		beat = -1
	}
	c.beat = beat
	c.ticks = ticks
	c.acc = 0
}

// Stepper advances a simulation by dt seconds.
type Stepper interface {
	Step(dt float64)
}

// Run calls s.Step at stepsPerSecond with the measured wall-clock delta
// until ctx is done.
func Run(ctx context.Context, stepsPerSecond int, s Stepper) error {
	if stepsPerSecond < 1 {
		stepsPerSecond = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(stepsPerSecond))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}
