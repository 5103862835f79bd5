package input

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
	"github.com/sirupsen/logrus"
)

const (
	markerTimeout   = 3 * time.Second
	infoLineTimeout = 1 * time.Second
	stepInterval    = 10 * time.Millisecond
)

// Geometry maps screen coordinates onto the touch device.
type Geometry struct {
	ScreenWidth  int
	ScreenHeight int
	TouchWidth   int
	TouchHeight  int
	XScale       float64
	YScale       float64
	Pressure     int
	Orientation  int
}

// Negotiation is the line a touch server prints after its '^' marker.
type Negotiation struct {
	Contacts    int
	MaxX        int
	MaxY        int
	MaxPressure int
}

// readInfo discards the server preamble up to '^' and parses
// "<contacts> <max_x> <max_y> <max_pressure>".
func readInfo(pipe unit.Pipe) (Negotiation, error) {
	if _, err := pipe.ReadUntil('^', markerTimeout); err != nil {
		return Negotiation{}, fmt.Errorf("touch server marker not found: %w", err)
	}
	line, err := pipe.ReadUntil('\n', infoLineTimeout)
	if err != nil {
		return Negotiation{}, fmt.Errorf("touch server info line not terminated: %w", err)
	}
	return parseNegotiation(string(line))
}

func parseNegotiation(line string) (Negotiation, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Negotiation{}, fmt.Errorf("unexpected touch server info %q", strings.TrimSpace(line))
	}

	values := make([]int, 4)
	for i := range values {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return Negotiation{}, fmt.Errorf("unexpected touch server info %q", strings.TrimSpace(line))
		}
		values[i] = v
	}
	if values[1] <= 0 || values[2] <= 0 {
		return Negotiation{}, fmt.Errorf("touch server reported empty range %dx%d", values[1], values[2])
	}
	return Negotiation{Contacts: values[0], MaxX: values[1], MaxY: values[2], MaxPressure: values[3]}, nil
}

// newGeometry orients the touch range like the screen: the larger touch
// dimension goes to the larger screen dimension.
func newGeometry(n Negotiation, width, height, orientation int) Geometry {
	long, short := n.MaxX, n.MaxY
	if short > long {
		long, short = short, long
	}

	g := Geometry{
		ScreenWidth:  width,
		ScreenHeight: height,
		Pressure:     n.MaxPressure,
		Orientation:  orientation,
	}
	if width > height {
		g.TouchWidth, g.TouchHeight = long, short
	} else {
		g.TouchWidth, g.TouchHeight = short, long
	}
	g.XScale = float64(g.TouchWidth) / float64(width)
	g.YScale = float64(g.TouchHeight) / float64(height)
	return g
}

// session is a negotiated touch protocol pipe shared by minitouch and
// maatouch. It is not safe for concurrent use.
type session struct {
	pipe        unit.Pipe
	negotiation Negotiation
	geometry    Geometry
	remap       bool

	sleep func(time.Duration)
}

func newSession(remap bool) session {
	return session{remap: remap, sleep: time.Sleep}
}

func (s *session) start(pipe unit.Pipe, width, height, orientation int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", width, height)
	}
	n, err := readInfo(pipe)
	if err != nil {
		return err
	}
	s.pipe = pipe
	s.negotiation = n
	s.geometry = newGeometry(n, width, height, orientation)

	utils.WithFields(logrus.Fields{
		"contacts":     n.Contacts,
		"touch_width":  s.geometry.TouchWidth,
		"touch_height": s.geometry.TouchHeight,
		"x_scale":      s.geometry.XScale,
		"y_scale":      s.geometry.YScale,
		"pressure":     n.MaxPressure,
		"orientation":  orientation,
	}).Info("touch session negotiated")
	return nil
}

func (s *session) resize(width, height, orientation int) error {
	if s.pipe == nil {
		return ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", width, height)
	}
	s.geometry = newGeometry(s.negotiation, width, height, orientation)
	return nil
}

func (s *session) close() {
	if s.pipe == nil {
		return
	}
	if err := s.pipe.Close(); err != nil {
		utils.Verbose("failed to close touch session: %v", err)
	}
	s.pipe = nil
}

// clamp pulls a point into the screen, warning when it had to.
func (s *session) clamp(x, y int) (int, int) {
	cx := clampInt(x, 0, s.geometry.ScreenWidth-1)
	cy := clampInt(y, 0, s.geometry.ScreenHeight-1)
	if cx != x || cy != y {
		utils.Warn("point (%d, %d) is outside the %dx%d screen, clamped to (%d, %d)", x, y, s.geometry.ScreenWidth, s.geometry.ScreenHeight, cx, cy)
	}
	return cx, cy
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// transform maps a screen point to touch coordinates. With remap the point
// is rotated into the touch device's natural frame.
func (s *session) transform(x, y int) (int, int) {
	x, y = s.clamp(x, y)
	g := s.geometry
	x2 := int(math.Round(float64(x) * g.XScale))
	y2 := int(math.Round(float64(y) * g.YScale))
	if !s.remap {
		return x2, y2
	}

	switch g.Orientation {
	case 1:
		return g.TouchHeight - y2, x2
	case 2:
		return g.TouchWidth - x2, g.TouchHeight - y2
	case 3:
		return y2, g.TouchWidth - x2
	default:
		return x2, y2
	}
}

func (s *session) write(cmd string) error {
	if s.pipe == nil {
		return ErrNotInitialized
	}
	if _, err := s.pipe.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("failed to write touch command: %w", err)
	}
	return nil
}

func downCmd(contact, x, y, pressure int) string {
	return fmt.Sprintf("d %d %d %d %d\n", contact, x, y, pressure)
}

func moveCmd(contact, x, y, pressure int) string {
	return fmt.Sprintf("m %d %d %d %d\n", contact, x, y, pressure)
}

func upCmd(contact int) string {
	return fmt.Sprintf("u %d\n", contact)
}

const commitCmd = "c\n"

func (s *session) down(contact, x, y int) error {
	tx, ty := s.transform(x, y)
	return s.write(downCmd(contact, tx, ty, s.geometry.Pressure) + commitCmd)
}

func (s *session) move(contact, x, y int) error {
	tx, ty := s.transform(x, y)
	return s.write(moveCmd(contact, tx, ty, s.geometry.Pressure) + commitCmd)
}

func (s *session) up(contact int) error {
	return s.write(upCmd(contact) + commitCmd)
}

func (s *session) click(x, y int) error {
	if err := s.down(0, x, y); err != nil {
		return err
	}
	return s.up(0)
}

func (s *session) key(key int) error {
	return s.write(fmt.Sprintf("k %d d\n%sk %d u\n%s", key, commitCmd, key, commitCmd))
}

func (s *session) swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	if s.pipe == nil {
		return ErrNotInitialized
	}
	if duration <= 0 {
		duration = DefaultSwipeDuration
	}
	return microSteps(x1, y1, x2, y2, duration, stepInterval, s.sleep,
		func(x, y int) error { return s.down(0, x, y) },
		func(x, y int) error { return s.move(0, x, y) },
		func() error { return s.up(0) },
	)
}

// microSteps walks a straight line from (x1, y1) to (x2, y2) in interval
// steps spanning duration, calling down once, move per step and up once.
func microSteps(x1, y1, x2, y2 int, duration, interval time.Duration, sleep func(time.Duration),
	down func(x, y int) error, move func(x, y int) error, up func() error) error {
	steps := int(duration / interval)
	if steps < 1 {
		steps = 1
	}

	if err := down(x1, y1); err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		sleep(interval)
		x := x1 + (x2-x1)*i/steps
		y := y1 + (y2-y1)*i/steps
		if err := move(x, y); err != nil {
			return err
		}
	}
	return up()
}

// multiSwipe runs every contact on one shared timeline, batching each
// tick's events into a single commit. Starting and Duration are in
// milliseconds; non-positive durations use the default.
func (s *session) multiSwipe(params []types.SwipeParam) error {
	if s.pipe == nil {
		return ErrNotInitialized
	}
	if len(params) == 0 {
		return nil
	}

	type contact struct {
		x1, y1, x2, y2 int
		start, end     time.Duration
		down, up       bool
	}

	contacts := make([]contact, len(params))
	for i, p := range params {
		duration := time.Duration(p.Duration) * time.Millisecond
		if duration <= 0 {
			duration = DefaultSwipeDuration
		}
		start := time.Duration(p.Starting) * time.Millisecond
		if start < 0 {
			start = 0
		}
		x1, y1 := s.transform(p.X1, p.Y1)
		x2, y2 := s.transform(p.X2, p.Y2)
		contacts[i] = contact{x1: x1, y1: y1, x2: x2, y2: y2, start: start, end: start + duration}
	}

	pressure := s.geometry.Pressure
	for now := time.Duration(0); ; now += stepInterval {
		var batch strings.Builder
		remaining := 0
		for i := range contacts {
			c := &contacts[i]
			switch {
			case c.up:
				continue
			case now < c.start:
			case !c.down:
				batch.WriteString(downCmd(i, c.x1, c.y1, pressure))
				c.down = true
			case now >= c.end:
				batch.WriteString(moveCmd(i, c.x2, c.y2, pressure))
				batch.WriteString(upCmd(i))
				c.up = true
				continue
			default:
				progress := float64(now-c.start) / float64(c.end-c.start)
				x := c.x1 + int(math.Round(float64(c.x2-c.x1)*progress))
				y := c.y1 + int(math.Round(float64(c.y2-c.y1)*progress))
				batch.WriteString(moveCmd(i, x, y, pressure))
			}
			remaining++
		}

		if batch.Len() > 0 {
			if err := s.write(batch.String() + commitCmd); err != nil {
				return err
			}
		}
		if remaining == 0 {
			return nil
		}
		s.sleep(stepInterval)
	}
}
