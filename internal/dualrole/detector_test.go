package dualrole

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dualkey/internal/input"
	mock_input "dualkey/internal/input/mocks"
)

const (
	quoteKey   input.Keycode = 48
	capsKey    input.Keycode = 66
	quoteSub   input.Keycode = 255
	capsSub    input.Keycode = 254
	controlL   input.Keycode = 37
	controlR   input.Keycode = 105
	letterA    input.Keycode = 38
	shiftL     input.Keycode = 50
	testThresh               = 300 * time.Millisecond
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func press(code input.Keycode, ms int) input.KeyEvent {
	return input.KeyEvent{Kind: input.Press, Code: code, Time: at(ms)}
}

func release(code input.Keycode, ms int) input.KeyEvent {
	return input.KeyEvent{Kind: input.Release, Code: code, Time: at(ms)}
}

func newTestDetector(t *testing.T) (*Detector, *mock_input.MockKeySink) {
	t.Helper()
	ctrl := gomock.NewController(t)
	sink := mock_input.NewMockKeySink(ctrl)
	d, err := New(Options{
		Bindings: []Binding{
			{Name: "quote", Key: quoteKey, Substitute: quoteSub},
			{Name: "caps", Key: capsKey, Substitute: capsSub},
		},
		Modifiers: []input.Keycode{controlL, controlR},
		Threshold: testThresh,
		Sink:      sink,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return d, sink
}

func expectTap(sink *mock_input.MockKeySink, code input.Keycode) {
	gomock.InOrder(
		sink.EXPECT().Synthesize(code, true).Return(nil),
		sink.EXPECT().Synthesize(code, false).Return(nil),
	)
}

func feed(d *Detector, events ...input.KeyEvent) {
	for _, ev := range events {
		d.HandleEvent(ev)
	}
}

func TestTapEmitsSubstituteOnRelease(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0))

	expectTap(sink, capsSub)
	feed(d, release(capsKey, 100))

	assert.Equal(t, Stats{Taps: 1}, d.Stats())
}

func TestHoldPastThresholdEmitsNothing(t *testing.T) {
	for _, heldMs := range []int{300, 301, 5000} {
		d, _ := newTestDetector(t)

		feed(d, press(capsKey, 0), release(capsKey, heldMs))

		assert.Equal(t, Stats{Slow: 1}, d.Stats(), "held %dms", heldMs)
	}
}

func TestJustUnderThresholdIsTap(t *testing.T) {
	d, sink := newTestDetector(t)
	expectTap(sink, quoteSub)

	feed(d, press(quoteKey, 0), release(quoteKey, 299))

	assert.Equal(t, 1, d.Stats().Taps)
}

func TestModifierPressEmitsImmediately(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0))

	expectTap(sink, capsSub)
	feed(d, press(controlL, 50))

	// nothing further, whatever the hold time
	feed(d, press(letterA, 60), release(letterA, 70), release(controlL, 80), release(capsKey, 500))

	assert.Equal(t, 1, d.Stats().Eager)
	assert.Equal(t, 0, d.Stats().Taps)
}

func TestModifierPressThenQuickReleaseEmitsOnce(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0))
	expectTap(sink, capsSub)
	feed(d, press(controlR, 20))

	feed(d, release(capsKey, 40), release(controlR, 60))

	assert.Equal(t, Stats{Eager: 1}, d.Stats())
}

func TestModifierAutoRepeatEmitsOnce(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0))
	expectTap(sink, capsSub)
	feed(d, press(controlL, 10), press(controlL, 40), press(controlL, 70), press(controlR, 90))

	feed(d, release(controlL, 100), release(controlR, 100), release(capsKey, 120))

	assert.Equal(t, 1, d.Stats().Eager)
}

func TestModifierReleaseWhileHeldSuppressesTap(t *testing.T) {
	d, _ := newTestDetector(t)

	// modifier already down before the monitored key
	feed(d, press(controlL, 0), press(capsKey, 10), release(controlL, 20), release(capsKey, 40))

	assert.Equal(t, Stats{Chorded: 1}, d.Stats())
}

func TestOtherKeySuppressesTap(t *testing.T) {
	d, _ := newTestDetector(t)

	feed(d, press(capsKey, 0), press(letterA, 20), release(capsKey, 40), release(letterA, 60))

	assert.Equal(t, Stats{Chorded: 1}, d.Stats())
}

func TestOtherKeyReleaseDoesNotChord(t *testing.T) {
	d, sink := newTestDetector(t)

	// 'a' was pressed before caps went down; only its release is seen
	feed(d, press(letterA, 0), press(capsKey, 10), release(letterA, 20))

	expectTap(sink, capsSub)
	feed(d, release(capsKey, 50))
}

func TestChordResetsAfterRelease(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0), press(shiftL, 10), release(capsKey, 20), release(shiftL, 30))

	expectTap(sink, capsSub)
	feed(d, press(capsKey, 100), release(capsKey, 150))

	assert.Equal(t, Stats{Taps: 1, Chorded: 1}, d.Stats())
}

func TestEagerFlagResetsAfterRelease(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0))
	expectTap(sink, capsSub)
	feed(d, press(controlL, 10), release(controlL, 20), release(capsKey, 30))

	expectTap(sink, capsSub)
	feed(d, press(capsKey, 100), release(capsKey, 150))

	assert.Equal(t, Stats{Taps: 1, Eager: 1}, d.Stats())
}

func TestAutoRepeatRefreshesPressTime(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0), press(capsKey, 30), press(capsKey, 60), press(capsKey, 90))

	expectTap(sink, capsSub)
	feed(d, release(capsKey, 120))

	// a second release without a new press does nothing
	feed(d, release(capsKey, 130))

	assert.Equal(t, Stats{Taps: 1}, d.Stats())
}

func TestReleaseWithoutPressIsIgnored(t *testing.T) {
	d, _ := newTestDetector(t)

	feed(d, release(capsKey, 100), release(controlL, 110), release(letterA, 120))

	assert.Equal(t, Stats{}, d.Stats())
}

func TestUnrelatedEventsIgnored(t *testing.T) {
	d, _ := newTestDetector(t)

	feed(d,
		press(letterA, 0), release(letterA, 10),
		press(controlL, 20), release(controlL, 30),
		input.KeyEvent{Kind: 0, Code: capsKey, Time: at(40)},
	)

	assert.Equal(t, Stats{}, d.Stats())
}

func TestOverlappingTapsEmitIndependently(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0), press(quoteKey, 10))

	expectTap(sink, capsSub)
	feed(d, release(capsKey, 50))

	expectTap(sink, quoteSub)
	feed(d, release(quoteKey, 60))

	assert.Equal(t, Stats{Taps: 2}, d.Stats())
}

func TestChordMarksEveryHeldKey(t *testing.T) {
	d, _ := newTestDetector(t)

	feed(d, press(capsKey, 0), press(quoteKey, 10), press(letterA, 20),
		release(capsKey, 30), release(quoteKey, 40))

	assert.Equal(t, Stats{Chorded: 2}, d.Stats())
}

func TestModifierEmitsForEveryHeldKey(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(quoteKey, 0), press(capsKey, 10))

	expectTap(sink, quoteSub)
	expectTap(sink, capsSub)
	feed(d, press(controlL, 20))

	feed(d, release(capsKey, 30), release(quoteKey, 40))
	assert.Equal(t, Stats{Eager: 2}, d.Stats())
}

func TestOwnSubstituteEchoIsNotAChord(t *testing.T) {
	d, sink := newTestDetector(t)

	feed(d, press(capsKey, 0), press(quoteKey, 10))
	expectTap(sink, quoteSub)
	feed(d, release(quoteKey, 20))

	// the synthesized quote substitute comes back through the stream
	feed(d, press(quoteSub, 21), release(quoteSub, 22))

	expectTap(sink, capsSub)
	feed(d, release(capsKey, 40))
}

func TestPhysicalSubstitutePressIsAChord(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_input.NewMockKeySink(ctrl)
	const escapeKey input.Keycode = 9
	d, err := New(Options{
		Bindings:  []Binding{{Name: "caps", Key: capsKey, Substitute: escapeKey}},
		Modifiers: []input.Keycode{controlL},
		Threshold: testThresh,
		Sink:      sink,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	// the real Escape key pressed while caps is held
	feed(d, press(capsKey, 0), press(escapeKey, 20), release(escapeKey, 30), release(capsKey, 40))
	assert.Equal(t, Stats{Chorded: 1}, d.Stats())

	// after a tap, only the echo is skipped; a second physical press still chords
	expectTap(sink, escapeKey)
	feed(d, press(capsKey, 100), release(capsKey, 150))
	feed(d, press(escapeKey, 151), release(escapeKey, 152))
	feed(d, press(capsKey, 200), press(escapeKey, 210), release(capsKey, 220))
	assert.Equal(t, Stats{Taps: 1, Chorded: 2}, d.Stats())
}

func TestResetDropsPendingEchoes(t *testing.T) {
	d, sink := newTestDetector(t)

	expectTap(sink, quoteSub)
	feed(d, press(quoteKey, 0), release(quoteKey, 10))
	d.Reset()

	// with the echo forgotten, a press of the same keycode chords
	feed(d, press(capsKey, 20), press(quoteSub, 30), release(capsKey, 40))
	assert.Equal(t, Stats{Taps: 1, Chorded: 1}, d.Stats())
}

func TestFailedPressLeavesNoPendingEcho(t *testing.T) {
	d, sink := newTestDetector(t)

	sink.EXPECT().Synthesize(quoteSub, true).Return(errors.New("BadValue"))
	feed(d, press(quoteKey, 0), release(quoteKey, 10))

	feed(d, press(capsKey, 20), press(quoteSub, 30), release(capsKey, 40))
	assert.Equal(t, Stats{Taps: 1, Chorded: 1, SinkErrors: 1}, d.Stats())
}

func TestSinkFailureIsCounted(t *testing.T) {
	d, sink := newTestDetector(t)

	sink.EXPECT().Synthesize(capsSub, true).Return(errors.New("BadValue"))
	feed(d, press(capsKey, 0), release(capsKey, 50))
	assert.Equal(t, Stats{Taps: 1, SinkErrors: 1}, d.Stats())

	expectTap(sink, capsSub)
	feed(d, press(capsKey, 100), release(capsKey, 150))
	assert.Equal(t, Stats{Taps: 2, SinkErrors: 1}, d.Stats())
}

func TestReset(t *testing.T) {
	d, _ := newTestDetector(t)

	feed(d, press(capsKey, 0), press(letterA, 10))
	d.Reset()

	// the release after a reset belongs to no press cycle
	feed(d, release(capsKey, 50))
	assert.Equal(t, Stats{}, d.Stats())
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		events []input.KeyEvent
		emits  int
	}{
		{
			name:   "quick tap",
			events: []input.KeyEvent{press(capsKey, 0), release(capsKey, 100)},
			emits:  1,
		},
		{
			name:   "control chord",
			events: []input.KeyEvent{press(capsKey, 0), press(controlL, 50), release(capsKey, 500)},
			emits:  1,
		},
		{
			name:   "letter chord",
			events: []input.KeyEvent{press(capsKey, 0), press(letterA, 20), release(capsKey, 40)},
			emits:  0,
		},
		{
			name:   "long hold",
			events: []input.KeyEvent{press(capsKey, 0), release(capsKey, 450)},
			emits:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sink := newTestDetector(t)
			sink.EXPECT().Synthesize(capsSub, true).Return(nil).Times(tt.emits)
			sink.EXPECT().Synthesize(capsSub, false).Return(nil).Times(tt.emits)

			feed(d, tt.events...)
		})
	}
}

func TestNewValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_input.NewMockKeySink(ctrl)
	caps := Binding{Name: "caps", Key: capsKey, Substitute: capsSub}

	tests := []struct {
		name   string
		opts   Options
		errMsg string
	}{
		{name: "no sink", opts: Options{Bindings: []Binding{caps}}, errMsg: "sink"},
		{name: "no bindings", opts: Options{Sink: sink}, errMsg: "at least one binding"},
		{name: "negative threshold", opts: Options{Sink: sink, Bindings: []Binding{caps}, Threshold: -time.Millisecond}, errMsg: "threshold"},
		{name: "zero keycode", opts: Options{Sink: sink, Bindings: []Binding{{Name: "x", Key: 0, Substitute: 9}}}, errMsg: "non-zero"},
		{name: "duplicate", opts: Options{Sink: sink, Bindings: []Binding{caps, caps}}, errMsg: "already monitored"},
		{name: "modifier overlap", opts: Options{Sink: sink, Bindings: []Binding{caps}, Modifiers: []input.Keycode{capsKey}}, errMsg: "also a modifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestNewDefaultsThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	d, err := New(Options{
		Bindings: []Binding{{Name: "caps", Key: capsKey, Substitute: capsSub}},
		Sink:     mock_input.NewMockKeySink(ctrl),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, d.Threshold())
}
