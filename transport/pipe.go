package transport

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
)

const pumpBufferSize = 4096

// processPipe is a child process whose stdout is pumped into chunks so reads
// can be bounded by a timeout.
type processPipe struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	chunks  chan []byte
	closed  chan struct{}
	pending []byte

	closeOnce sync.Once
}

func startPipe(cmd *exec.Cmd) (*processPipe, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	p := &processPipe{
		cmd:    cmd,
		stdin:  stdin,
		chunks: make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	go p.pump(stdout)
	return p, nil
}

func (p *processPipe) pump(r io.Reader) {
	defer close(p.chunks)
	buf := make([]byte, pumpBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.chunks <- chunk:
			case <-p.closed:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				utils.Verbose("pipe read ended: %v", err)
			}
			return
		}
	}
}

func (p *processPipe) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, unit.ErrClosed
	default:
	}
	return p.stdin.Write(b)
}

func (p *processPipe) Read(timeout time.Duration) ([]byte, error) {
	if len(p.pending) > 0 {
		out := p.pending
		p.pending = nil
		return out, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case chunk, ok := <-p.chunks:
		if !ok {
			return nil, unit.ErrClosed
		}
		return chunk, nil
	case <-timer.C:
		return nil, unit.ErrTimeout
	}
}

func (p *processPipe) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if idx := bytes.IndexByte(p.pending, delim); idx >= 0 {
			out := p.pending[:idx+1]
			p.pending = p.pending[idx+1:]
			return out, nil
		}

		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				return nil, unit.ErrClosed
			}
			p.pending = append(p.pending, chunk...)
		case <-timer.C:
			return nil, unit.ErrTimeout
		}
	}
}

func (p *processPipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		_ = p.stdin.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		go func() { _ = p.cmd.Wait() }()
	})
	return nil
}
