// Package dualrole decides whether a monitored key was tapped on its own or
// held as part of a chord.
//
// A tap (press and release within the threshold, nothing else pressed in
// between) emits the key's substitute. A chord emits nothing on release; the
// keyboard configuration already treats the held key as a modifier. Pressing
// one of the modifier keys while a monitored key is down emits the
// substitute right away so that the resulting modifier chord reaches
// applications in the right order.
//
// All timing decisions are made when an event arrives, by comparing the
// event timestamp with the recorded press time. There are no timers.
package dualrole

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dualkey/internal/input"
)

// DefaultThreshold is the longest press that still counts as a tap.
const DefaultThreshold = 300 * time.Millisecond

// Binding assigns dual-role behavior to one physical key.
type Binding struct {
	Name       string
	Key        input.Keycode
	Substitute input.Keycode
}

// Options configures a Detector.
type Options struct {
	Bindings  []Binding
	Modifiers []input.Keycode
	Threshold time.Duration
	Sink      input.KeySink
	Logger    zerolog.Logger
}

// Stats counts the decisions taken by a Detector.
type Stats struct {
	Taps       int // substitutes emitted on release
	Eager      int // substitutes emitted on a modifier press
	Chorded    int // releases suppressed because another key was used
	Slow       int // releases suppressed because the threshold passed
	SinkErrors int
}

// keyState is the per-key detection state. pressedAt is only meaningful
// while down is set.
type keyState struct {
	Binding
	down      bool
	pressedAt time.Time
	chord     bool
	emitted   bool
}

// Detector is the tap/chord state machine. It is not safe for concurrent
// use; feed it from a single goroutine in event arrival order.
type Detector struct {
	keys      map[input.Keycode]*keyState
	order     []*keyState
	modifiers map[input.Keycode]bool
	echoes    map[input.Keycode]int // synthesized presses not yet seen back
	threshold time.Duration
	sink      input.KeySink
	log       zerolog.Logger
	stats     Stats
}

// New validates opts and returns a Detector with every key released.
func New(opts Options) (*Detector, error) {
	if opts.Sink == nil {
		return nil, errors.New("key sink is required")
	}
	if len(opts.Bindings) == 0 {
		return nil, errors.New("at least one binding is required")
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must be positive, got %s", threshold)
	}

	d := &Detector{
		keys:      make(map[input.Keycode]*keyState, len(opts.Bindings)),
		modifiers: make(map[input.Keycode]bool, len(opts.Modifiers)),
		echoes:    make(map[input.Keycode]int, len(opts.Bindings)),
		threshold: threshold,
		sink:      opts.Sink,
		log:       opts.Logger,
	}
	for _, code := range opts.Modifiers {
		d.modifiers[code] = true
	}
	for _, b := range opts.Bindings {
		if b.Key == 0 || b.Substitute == 0 {
			return nil, fmt.Errorf("binding %q: keycode must be non-zero", b.Name)
		}
		if _, dup := d.keys[b.Key]; dup {
			return nil, fmt.Errorf("binding %q: key %d already monitored", b.Name, b.Key)
		}
		if d.modifiers[b.Key] {
			return nil, fmt.Errorf("binding %q: key %d is also a modifier", b.Name, b.Key)
		}
		k := &keyState{Binding: b}
		d.keys[b.Key] = k
		d.order = append(d.order, k)
	}
	return d, nil
}

// Threshold returns the tap threshold in effect.
func (d *Detector) Threshold() time.Duration {
	return d.threshold
}

// Bindings returns the monitored keys in configuration order.
func (d *Detector) Bindings() []Binding {
	out := make([]Binding, len(d.order))
	for i, k := range d.order {
		out[i] = k.Binding
	}
	return out
}

// Stats returns a copy of the decision counters.
func (d *Detector) Stats() Stats {
	return d.stats
}

// Reset forgets every held key, chord and pending echo.
func (d *Detector) Reset() {
	clear(d.echoes)
	for _, k := range d.order {
		k.down = false
		k.pressedAt = time.Time{}
		k.chord = false
		k.emitted = false
	}
}

// HandleEvent advances the state machine by one event and emits at most one
// substitute per held monitored key.
func (d *Detector) HandleEvent(ev input.KeyEvent) {
	switch ev.Kind {
	case input.Press:
		d.press(ev)
	case input.Release:
		d.release(ev)
	}
}

func (d *Detector) press(ev input.KeyEvent) {
	if k, ok := d.keys[ev.Code]; ok {
		// auto-repeat only refreshes the timestamp
		k.down = true
		k.pressedAt = ev.Time
		return
	}

	// our own substitutes come back through the stream
	if d.echoes[ev.Code] > 0 {
		d.echoes[ev.Code]--
		return
	}

	if d.modifiers[ev.Code] {
		for _, k := range d.order {
			if k.down && !k.emitted {
				k.emitted = true
				d.stats.Eager++
				d.emit(k, "modifier pressed")
			}
		}
		return
	}

	for _, k := range d.order {
		if k.down && !k.chord {
			k.chord = true
			d.log.Debug().Str("key", k.Name).Uint8("with", uint8(ev.Code)).Msg("Chord")
		}
	}
}

func (d *Detector) release(ev input.KeyEvent) {
	if k, ok := d.keys[ev.Code]; ok {
		d.releaseKey(k, ev.Time)
		return
	}

	if d.modifiers[ev.Code] {
		for _, k := range d.order {
			if k.down {
				k.chord = true
			}
		}
	}
}

func (d *Detector) releaseKey(k *keyState, at time.Time) {
	defer func() {
		k.chord = false
		k.emitted = false
	}()

	if !k.down {
		return
	}
	k.down = false
	held := at.Sub(k.pressedAt)

	switch {
	case k.emitted:
	case k.chord:
		d.stats.Chorded++
	case held >= d.threshold:
		d.stats.Slow++
		d.log.Debug().Str("key", k.Name).Dur("held", held).Msg("Held past threshold")
	default:
		d.stats.Taps++
		d.emit(k, "tap")
	}
}

func (d *Detector) emit(k *keyState, reason string) {
	d.log.Debug().
		Str("key", k.Name).
		Uint8("substitute", uint8(k.Substitute)).
		Str("reason", reason).
		Msg("Emitting substitute")
	d.echoes[k.Substitute]++
	if err := d.sink.Synthesize(k.Substitute, true); err != nil {
		d.echoes[k.Substitute]--
		d.sinkFailed(k, err)
		return
	}
	if err := d.sink.Synthesize(k.Substitute, false); err != nil {
		d.sinkFailed(k, err)
	}
}

func (d *Detector) sinkFailed(k *keyState, err error) {
	d.stats.SinkErrors++
	d.log.Warn().Err(err).Str("key", k.Name).Msg("Failed to synthesize substitute")
}
