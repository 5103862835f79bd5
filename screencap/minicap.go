package screencap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

const (
	minicapName = "minicap"

	minicapOnceTimeout  = 10 * time.Second
	minicapFrameTimeout = 2 * time.Second
	minicapDialAttempts = 10
	minicapDialBackoff  = 200 * time.Millisecond
	minicapBannerSize   = 24

	// frames never exceed raw RGBA at the real resolution plus jpeg headers
	minicapFrameSlack   = 64 << 10
	minicapMaxFrameSize = 64 << 20

	minicapPortStart = 1313
	minicapPortEnd   = 1413
)

var (
	defaultForwardSocketArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "forward", "tcp:{FORWARD_PORT}", "localabstract:{LOCAL_SOCKET}")
	defaultRemoveForwardArgv = unit.NewArgv("{ADB}", "-s", "{ADB_SERIAL}", "forward", "--remove", "tcp:{FORWARD_PORT}")

	errNoStreamFrame = errors.New("minicap stream has not produced a frame")
)

// minicapProjection builds the -P argument. minicap wants the natural
// (portrait for phones) size, so odd orientations swap the current one.
func minicapProjection(width, height, orientation int) string {
	if orientation%2 == 1 {
		width, height = height, width
	}
	return fmt.Sprintf("%dx%d@%dx%d/%d", width, height, width, height, orientation*90)
}

type minicapGeometry struct {
	info   *device.Info
	width  int
	height int
}

func (g *minicapGeometry) projection() (string, error) {
	if g.width <= 0 || g.height <= 0 {
		return "", fmt.Errorf("invalid minicap size %dx%d", g.width, g.height)
	}
	orientation, err := g.info.RequestOrientation()
	if err != nil {
		return "", err
	}
	return minicapProjection(g.width, g.height, orientation), nil
}

// MinicapDirect runs minicap once per capture and decodes its JPEG output.
type MinicapDirect struct {
	unit.Base
	minicapGeometry
	helper Helper

	bin   *device.InvokeBin
	ready bool
}

func NewMinicapDirect(info *device.Info) *MinicapDirect {
	s := &MinicapDirect{
		minicapGeometry: minicapGeometry{info: info},
		bin:             device.NewInvokeBin(minicapName, true, info),
	}
	s.AddChild(s.bin)
	return s
}

func (s *MinicapDirect) Parse(cfg unit.Config) error {
	return s.ParseChildren(cfg)
}

func (s *MinicapDirect) Init(width, height int) error {
	s.width, s.height = width, height
	if err := s.bin.Init(); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *MinicapDirect) SetWH(width, height int) error {
	s.width, s.height = width, height
	return nil
}

func (s *MinicapDirect) Deinit() {
	s.bin.Deinit()
	s.ready = false
}

func (s *MinicapDirect) Screencap() (*types.Frame, error) {
	if !s.ready {
		return nil, ErrNotInitialized
	}
	projection, err := s.projection()
	if err != nil {
		return nil, err
	}

	output, err := s.bin.InvokeOnce("-P "+projection+" -s", minicapOnceTimeout)
	if err != nil {
		return nil, err
	}
	return s.helper.Process(output, func(buf []byte) (*types.Frame, error) {
		return DecodeJPEG(TrimJPEGPreamble(buf))
	})
}

// MinicapBanner is the header minicap sends once per stream connection.
type MinicapBanner struct {
	Version     uint8
	Size        uint8
	PID         uint32
	RealWidth   uint32
	RealHeight  uint32
	VirtWidth   uint32
	VirtHeight  uint32
	Orientation uint8
	Quirks      uint8
}

func parseMinicapBanner(b []byte) (MinicapBanner, error) {
	if len(b) < minicapBannerSize {
		return MinicapBanner{}, fmt.Errorf("short minicap banner: %d bytes", len(b))
	}
	banner := MinicapBanner{
		Version:     b[0],
		Size:        b[1],
		PID:         binary.LittleEndian.Uint32(b[2:6]),
		RealWidth:   binary.LittleEndian.Uint32(b[6:10]),
		RealHeight:  binary.LittleEndian.Uint32(b[10:14]),
		VirtWidth:   binary.LittleEndian.Uint32(b[14:18]),
		VirtHeight:  binary.LittleEndian.Uint32(b[18:22]),
		Orientation: b[22],
		Quirks:      b[23],
	}
	if banner.Size != minicapBannerSize {
		return MinicapBanner{}, fmt.Errorf("unexpected minicap banner size %d", banner.Size)
	}
	return banner, nil
}

// MaxFrameSize bounds the length prefix of a frame on this stream.
func (b MinicapBanner) MaxFrameSize() uint32 {
	limit := 4*uint64(b.RealWidth)*uint64(b.RealHeight) + minicapFrameSlack
	if b.RealWidth == 0 || b.RealHeight == 0 || limit > minicapMaxFrameSize {
		return minicapMaxFrameSize
	}
	return uint32(limit)
}

// MinicapStream keeps a minicap daemon running and reads frames from its
// forwarded socket in the background. Screencap returns the newest frame.
type MinicapStream struct {
	unit.Base
	minicapGeometry

	bin               *device.InvokeBin
	forwardArgv       unit.Argv
	removeForwardArgv unit.Argv

	dial func(address string) (net.Conn, error)

	port   int
	pipe   unit.Pipe
	conn   net.Conn
	banner MinicapBanner
	done   chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	latest   []byte
	seq      uint64
	consumed uint64
	updated  chan struct{}
	readErr  error
}

func NewMinicapStream(info *device.Info) *MinicapStream {
	s := &MinicapStream{
		minicapGeometry: minicapGeometry{info: info},
		bin:             device.NewInvokeBin(minicapName, true, info),
		dial: func(address string) (net.Conn, error) {
			return net.DialTimeout("tcp", address, time.Second)
		},
	}
	s.AddChild(s.bin)
	return s
}

func (s *MinicapStream) Parse(cfg unit.Config) error {
	if err := s.ParseChildren(cfg); err != nil {
		return err
	}
	return cfg.ParseCommands(
		unit.CommandSpec{Name: "ForwardSocket", Default: defaultForwardSocketArgv, Dest: &s.forwardArgv},
		unit.CommandSpec{Name: "RemoveForward", Default: defaultRemoveForwardArgv, Dest: &s.removeForwardArgv},
	)
}

func (s *MinicapStream) Init(width, height int) error {
	s.width, s.height = width, height
	if err := s.bin.Init(); err != nil {
		return err
	}
	if err := s.start(); err != nil {
		s.Deinit()
		return err
	}
	return nil
}

func (s *MinicapStream) start() error {
	projection, err := s.projection()
	if err != nil {
		return err
	}

	port, err := utils.FindAvailablePort("127.0.0.1", minicapPortStart, minicapPortEnd)
	if err != nil {
		return err
	}
	socket := fmt.Sprintf("%s_%s", minicapName, uuid.NewString()[:8])

	pipe, err := s.bin.Invoke(fmt.Sprintf("-n %s -P %s", socket, projection))
	if err != nil {
		return fmt.Errorf("failed to start minicap: %w", err)
	}
	s.pipe = pipe

	if _, err := s.Command(s.forwardArgv, unit.Replacement{
		unit.TokenForwardPort: strconv.Itoa(port),
		unit.TokenLocalSocket: socket,
	}, false, unit.DefaultTimeout); err != nil {
		return fmt.Errorf("failed to forward minicap socket: %w", err)
	}
	s.port = port

	conn, err := s.connect(fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return err
	}
	s.conn = conn

	head := make([]byte, minicapBannerSize)
	if _, err := io.ReadFull(conn, head); err != nil {
		return fmt.Errorf("failed to read minicap banner: %w", err)
	}
	if s.banner, err = parseMinicapBanner(head); err != nil {
		return err
	}
	utils.Verbose("minicap stream v%d pid %d %dx%d on port %d", s.banner.Version, s.banner.PID, s.banner.VirtWidth, s.banner.VirtHeight, port)

	s.mu.Lock()
	s.latest, s.seq, s.consumed, s.readErr = nil, 0, 0, nil
	s.updated = make(chan struct{})
	s.mu.Unlock()

	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.readLoop(conn, s.banner.MaxFrameSize(), s.done)
	return nil
}

// connect retries while the daemon is still creating its socket.
func (s *MinicapStream) connect(address string) (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < minicapDialAttempts; attempt++ {
		conn, err := s.dial(address)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(minicapDialBackoff)
	}
	return nil, fmt.Errorf("failed to connect to minicap on %s: %w", address, lastErr)
}

func (s *MinicapStream) readLoop(conn net.Conn, maxSize uint32, done chan struct{}) {
	defer s.wg.Done()

	var size [4]byte
	for {
		if _, err := io.ReadFull(conn, size[:]); err != nil {
			s.fail(err, done)
			return
		}
		n := binary.LittleEndian.Uint32(size[:])
		if n == 0 || n > maxSize {
			s.fail(fmt.Errorf("minicap frame length %d out of range (max %d)", n, maxSize), done)
			return
		}
		frame := make([]byte, n)
		if _, err := io.ReadFull(conn, frame); err != nil {
			s.fail(err, done)
			return
		}

		s.mu.Lock()
		s.latest = frame
		s.seq++
		close(s.updated)
		s.updated = make(chan struct{})
		s.mu.Unlock()
	}
}

func (s *MinicapStream) fail(err error, done chan struct{}) {
	select {
	case <-done:
		return
	default:
	}
	utils.Warn("minicap stream stopped: %v", err)
	s.mu.Lock()
	s.readErr = err
	close(s.updated)
	s.updated = make(chan struct{})
	s.mu.Unlock()
}

// Banner returns the banner of the current connection.
func (s *MinicapStream) Banner() MinicapBanner {
	return s.banner
}

// SetWH restarts the daemon with the new projection.
func (s *MinicapStream) SetWH(width, height int) error {
	if s.conn == nil {
		s.width, s.height = width, height
		return nil
	}
	s.stop()
	s.width, s.height = width, height
	return s.start()
}

func (s *MinicapStream) Screencap() (*types.Frame, error) {
	if s.conn == nil {
		return nil, ErrNotInitialized
	}

	s.mu.Lock()
	if s.seq == s.consumed && s.readErr == nil {
		updated := s.updated
		s.mu.Unlock()
		select {
		case <-updated:
		case <-time.After(minicapFrameTimeout):
			utils.Verbose("no new minicap frame in %s, using the cached one", minicapFrameTimeout)
		}
		s.mu.Lock()
	}
	data, seq := s.latest, s.seq
	readErr := s.readErr
	s.consumed = seq
	s.mu.Unlock()

	if data == nil {
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", errNoStreamFrame, readErr)
		}
		return nil, errNoStreamFrame
	}
	return DecodeJPEG(data)
}

func (s *MinicapStream) stop() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.wg.Wait()

	if s.port != 0 {
		if _, err := s.Command(s.removeForwardArgv, unit.Replacement{unit.TokenForwardPort: strconv.Itoa(s.port)}, false, unit.DefaultTimeout); err != nil {
			utils.Verbose("failed to remove forward tcp:%d: %v", s.port, err)
		}
		s.port = 0
	}
	if s.pipe != nil {
		_ = s.pipe.Close()
		s.pipe = nil
	}
}

func (s *MinicapStream) Deinit() {
	s.stop()
	s.bin.Deinit()
}
