package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

// ProcessIO implements unit.IO by spawning local processes (normally adb)
// and optionally receiving their payload on a listening TCP socket.
type ProcessIO struct {
	mu       sync.Mutex
	listener *net.TCPListener
}

func NewProcessIO() *ProcessIO {
	return &ProcessIO{}
}

func (p *ProcessIO) Run(argv []string, recvBySocket bool, timeout time.Duration) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if !recvBySocket {
		err := cmd.Run()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", unit.ErrTimeout, timeout, strings.Join(argv, " "))
		}
		if err != nil {
			return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), nil
	}

	p.mu.Lock()
	listener := p.listener
	p.mu.Unlock()
	if listener == nil {
		return nil, fmt.Errorf("socket receive requested but no socket is open")
	}

	deadline := time.Now().Add(timeout)
	_ = listener.SetDeadline(deadline)

	type received struct {
		data []byte
		err  error
	}
	recv := make(chan received, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			recv <- received{err: err}
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(deadline)
		data, err := io.ReadAll(conn)
		recv <- received{data: data, err: err}
	}()

	if err := cmd.Start(); err != nil {
		_ = listener.SetDeadline(time.Now())
		<-recv
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		// unblock a pending accept; the peer never connected
		_ = listener.SetDeadline(time.Now())
	}
	r := <-recv

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s: %s", unit.ErrTimeout, timeout, strings.Join(argv, " "))
	}
	if waitErr != nil {
		return nil, fmt.Errorf("%v: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	if r.err != nil {
		var netErr net.Error
		if errors.As(r.err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w waiting for socket data", unit.ErrTimeout)
		}
		return nil, fmt.Errorf("socket receive failed: %w", r.err)
	}
	return r.data, nil
}

func (p *ProcessIO) CreateSocket(host string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.listener != nil {
		_ = p.listener.Close()
		p.listener = nil
	}

	addr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, fmt.Errorf("invalid socket host %s: %w", host, err)
	}
	listener, err := net.ListenTCP("tcp4", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", host, err)
	}

	p.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port
	utils.Verbose("listening on %s:%d", host, port)
	return port, nil
}

func (p *ProcessIO) CloseSocket() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.listener != nil {
		_ = p.listener.Close()
		p.listener = nil
	}
}

func (p *ProcessIO) Interactive(argv []string) (unit.Pipe, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	pipe, err := startPipe(exec.Command(argv[0], argv[1:]...))
	if err != nil {
		return nil, err
	}
	return pipe, nil
}
