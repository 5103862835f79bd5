package input

import (
	"strings"
	"testing"
	"time"

	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/unit/unittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const negotiation = "v 1\n^ 10 2560 1440 50\n$ 4321\n"

func startedSession(t *testing.T, remap bool, width, height, orientation int) (*session, *unittest.FakePipe) {
	t.Helper()
	pipe := unittest.NewFakePipe(negotiation)
	s := newSession(remap)
	s.sleep = func(time.Duration) {}
	require.NoError(t, s.start(pipe, width, height, orientation))
	return &s, pipe
}

func TestReadInfo(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    Negotiation
		wantErr bool
	}{
		{"minitouch banner", negotiation, Negotiation{Contacts: 10, MaxX: 2560, MaxY: 1440, MaxPressure: 50}, false},
		{"no preamble", "^ 2 1079 1919 0\n", Negotiation{Contacts: 2, MaxX: 1079, MaxY: 1919}, false},
		{"marker missing", "v 1\n10 2560 1440 50\n", Negotiation{}, true},
		{"line not terminated", "^ 10 2560 1440 50", Negotiation{}, true},
		{"too few fields", "^ 10 2560\n", Negotiation{}, true},
		{"not numbers", "^ a b c d\n", Negotiation{}, true},
		{"empty range", "^ 10 0 1440 50\n", Negotiation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInfo(unittest.NewFakePipe(tt.output))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGeometry(t *testing.T) {
	n := Negotiation{Contacts: 10, MaxX: 1440, MaxY: 2560, MaxPressure: 50}

	landscape := newGeometry(n, 1280, 720, 1)
	assert.Equal(t, 2560, landscape.TouchWidth)
	assert.Equal(t, 1440, landscape.TouchHeight)
	assert.InDelta(t, 2.0, landscape.XScale, 1e-9)
	assert.InDelta(t, 2.0, landscape.YScale, 1e-9)

	portrait := newGeometry(n, 720, 1280, 0)
	assert.Equal(t, 1440, portrait.TouchWidth)
	assert.Equal(t, 2560, portrait.TouchHeight)
	assert.Equal(t, 50, portrait.Pressure)
}

func TestSession_Transform(t *testing.T) {
	tests := []struct {
		name        string
		remap       bool
		orientation int
		x, y        int
		wantX       int
		wantY       int
	}{
		{"centre orientation 0", true, 0, 640, 360, 1280, 720},
		{"centre orientation 1", true, 1, 640, 360, 720, 1280},
		{"orientation 0", true, 0, 100, 50, 200, 100},
		{"orientation 1", true, 1, 100, 50, 1340, 200},
		{"orientation 2", true, 2, 100, 50, 2360, 1340},
		{"orientation 3", true, 3, 100, 50, 100, 2360},
		{"direct scaling ignores orientation", false, 1, 100, 50, 200, 100},
		{"clamped below", true, 0, -5, 800, 0, 1438},
		{"clamped above", false, 0, 1280, 720, 2558, 1438},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := startedSession(t, tt.remap, 1280, 720, tt.orientation)
			x, y := s.transform(tt.x, tt.y)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestSession_TransformRoundsToNearest(t *testing.T) {
	tests := []struct {
		name         string
		x, y         int
		wantX, wantY int
	}{
		{"origin", 0, 0, 0, 0},
		{"rounds up", 1, 1, 3, 2},
		{"exact multiple", 25, 5, 64, 12},
		{"far edge", 999, 599, 2557, 1438},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := startedSession(t, false, 1000, 600, 0)
			x, y := s.transform(tt.x, tt.y)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestSession_Click(t *testing.T) {
	s, pipe := startedSession(t, true, 1280, 720, 0)
	require.NoError(t, s.click(640, 360))
	assert.Equal(t, "d 0 1280 720 50\nc\nu 0\nc\n", pipe.Written())

	pipe.Reset()
	require.NoError(t, s.key(4))
	assert.Equal(t, "k 4 d\nc\nk 4 u\nc\n", pipe.Written())

	pipe.Reset()
	require.NoError(t, s.down(2, 10, 10))
	require.NoError(t, s.move(2, 20, 10))
	require.NoError(t, s.up(2))
	assert.Equal(t, "d 2 20 20 50\nc\nm 2 40 20 50\nc\nu 2\nc\n", pipe.Written())
}

func TestSession_NotStarted(t *testing.T) {
	s := newSession(false)
	assert.ErrorIs(t, s.click(1, 1), ErrNotInitialized)
	assert.ErrorIs(t, s.swipe(1, 1, 2, 2, 0), ErrNotInitialized)
	assert.ErrorIs(t, s.multiSwipe([]types.SwipeParam{{}}), ErrNotInitialized)
	assert.ErrorIs(t, s.resize(10, 10, 0), ErrNotInitialized)
	s.close()
}

func TestSession_ClosedPipe(t *testing.T) {
	s, pipe := startedSession(t, false, 1280, 720, 0)
	require.NoError(t, pipe.Close())
	assert.ErrorIs(t, s.click(1, 1), unit.ErrClosed)
}

func TestSession_Swipe(t *testing.T) {
	s, pipe := startedSession(t, false, 1280, 720, 0)
	sleeps := 0
	s.sleep = func(d time.Duration) {
		assert.Equal(t, stepInterval, d)
		sleeps++
	}

	require.NoError(t, s.swipe(0, 0, 300, 0, 30*time.Millisecond))
	assert.Equal(t, "d 0 0 0 50\nc\nm 0 200 0 50\nc\nm 0 400 0 50\nc\nm 0 600 0 50\nc\nu 0\nc\n", pipe.Written())
	assert.Equal(t, 3, sleeps)

	pipe.Reset()
	sleeps = 0
	require.NoError(t, s.swipe(0, 0, 300, 0, 0))
	assert.Equal(t, 20, strings.Count(pipe.Written(), "m 0 "), "non-positive duration uses the default")
	assert.Equal(t, 20, sleeps)
}

func TestMicroSteps(t *testing.T) {
	var events []string
	err := microSteps(0, 0, 10, 20, 20*time.Millisecond, 10*time.Millisecond, func(time.Duration) {},
		func(x, y int) error { events = append(events, "down"); return nil },
		func(x, y int) error { events = append(events, "move"); return nil },
		func() error { events = append(events, "up"); return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"down", "move", "move", "up"}, events)

	events = nil
	err = microSteps(0, 0, 10, 20, time.Millisecond, 10*time.Millisecond, func(time.Duration) {},
		func(x, y int) error { events = append(events, "down"); return nil },
		func(x, y int) error {
			assert.Equal(t, 10, x)
			assert.Equal(t, 20, y)
			events = append(events, "move")
			return nil
		},
		func() error { events = append(events, "up"); return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"down", "move", "up"}, events, "always at least one step")
}

func TestSession_MultiSwipe(t *testing.T) {
	pipe := unittest.NewFakePipe("^ 10 1000 1000 0\n")
	s := newSession(false)
	sleeps := 0
	s.sleep = func(time.Duration) { sleeps++ }
	require.NoError(t, s.start(pipe, 1000, 1000, 0))

	require.NoError(t, s.multiSwipe([]types.SwipeParam{
		{X1: 0, Y1: 0, X2: 100, Y2: 0, Starting: 0, Duration: 20},
		{X1: 0, Y1: 100, X2: 100, Y2: 100, Starting: 10, Duration: 20},
	}))

	want := "d 0 0 0 0\nc\n" +
		"m 0 50 0 0\nd 1 0 100 0\nc\n" +
		"m 0 100 0 0\nu 0\nm 1 50 100 0\nc\n" +
		"m 1 100 100 0\nu 1\nc\n"
	assert.Equal(t, want, pipe.Written())
	assert.Equal(t, 3, sleeps)

	pipe.Reset()
	require.NoError(t, s.multiSwipe(nil))
	assert.Empty(t, pipe.Written())
}

func TestSession_Resize(t *testing.T) {
	s, pipe := startedSession(t, true, 1280, 720, 0)
	require.NoError(t, s.resize(720, 1280, 0))
	assert.Equal(t, 1440, s.geometry.TouchWidth)
	assert.Equal(t, 2560, s.geometry.TouchHeight)

	require.NoError(t, s.click(360, 640))
	assert.Equal(t, "d 0 720 1280 50\nc\nu 0\nc\n", pipe.Written())

	assert.Error(t, s.resize(0, 10, 0))
}
