// Package unittest provides a scripted transport for exercising units
// without a device.
package unittest

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mobile-next/adbctl/unit"
)

// Call records one Run invocation.
type Call struct {
	Argv         []string
	RecvBySocket bool
	Timeout      time.Duration
}

// String joins the argv with spaces.
func (c Call) String() string {
	return strings.Join(c.Argv, " ")
}

type runHandler struct {
	match string
	fn    func(argv []string) ([]byte, error)
}

type pipeHandler struct {
	match string
	fn    func(argv []string) (unit.Pipe, error)
}

// FakeIO answers commands whose joined argv contains a registered substring.
// Handlers are tried in registration order.
type FakeIO struct {
	mu           sync.Mutex
	calls        []Call
	interactives [][]string
	run          []runHandler
	pipes        []pipeHandler

	SocketPort   int
	SocketErr    error
	SocketHosts  []string
	SocketClosed int
}

func NewFakeIO() *FakeIO {
	return &FakeIO{SocketPort: 40000}
}

// On answers matching commands with a fixed output and error.
func (f *FakeIO) On(match string, output string, err error) *FakeIO {
	return f.OnFunc(match, func([]string) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(output), nil
	})
}

// OnFunc answers matching commands with fn.
func (f *FakeIO) OnFunc(match string, fn func(argv []string) ([]byte, error)) *FakeIO {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.run = append(f.run, runHandler{match: match, fn: fn})
	return f
}

// OnInteractive answers matching Interactive calls.
func (f *FakeIO) OnInteractive(match string, fn func(argv []string) (unit.Pipe, error)) *FakeIO {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipes = append(f.pipes, pipeHandler{match: match, fn: fn})
	return f
}

func (f *FakeIO) Run(argv []string, recvBySocket bool, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Argv: argv, RecvBySocket: recvBySocket, Timeout: timeout})
	handlers := f.run
	f.mu.Unlock()

	joined := strings.Join(argv, " ")
	for _, h := range handlers {
		if strings.Contains(joined, h.match) {
			return h.fn(argv)
		}
	}
	return nil, fmt.Errorf("no fake response for %q", joined)
}

func (f *FakeIO) CreateSocket(host string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SocketHosts = append(f.SocketHosts, host)
	if f.SocketErr != nil {
		return 0, f.SocketErr
	}
	return f.SocketPort, nil
}

func (f *FakeIO) CloseSocket() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SocketClosed++
}

func (f *FakeIO) Interactive(argv []string) (unit.Pipe, error) {
	f.mu.Lock()
	f.interactives = append(f.interactives, argv)
	handlers := f.pipes
	f.mu.Unlock()

	joined := strings.Join(argv, " ")
	for _, h := range handlers {
		if strings.Contains(joined, h.match) {
			return h.fn(argv)
		}
	}
	return nil, fmt.Errorf("no fake pipe for %q", joined)
}

// Calls returns a snapshot of the recorded Run calls.
func (f *FakeIO) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsMatching returns the recorded Run calls containing match.
func (f *FakeIO) CallsMatching(match string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.Contains(c.String(), match) {
			out = append(out, c)
		}
	}
	return out
}

// Interactives returns the argv of every Interactive call.
func (f *FakeIO) Interactives() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.interactives...)
}

// FakePipe serves a fixed output and records everything written to it.
// Reads never block; a missing delimiter reports unit.ErrTimeout.
type FakePipe struct {
	mu       sync.Mutex
	output   []byte
	written  bytes.Buffer
	closed   int
	WriteErr error
}

func NewFakePipe(output string) *FakePipe {
	return &FakePipe{output: []byte(output)}
}

func (p *FakePipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed > 0 {
		return 0, unit.ErrClosed
	}
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.written.Write(b)
}

func (p *FakePipe) Read(timeout time.Duration) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.output) == 0 {
		return nil, unit.ErrTimeout
	}
	out := p.output
	p.output = nil
	return out, nil
}

func (p *FakePipe) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := bytes.IndexByte(p.output, delim)
	if idx < 0 {
		return nil, unit.ErrTimeout
	}
	out := p.output[:idx+1]
	p.output = p.output[idx+1:]
	return out, nil
}

func (p *FakePipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Written returns everything written so far.
func (p *FakePipe) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// Reset discards the recorded writes.
func (p *FakePipe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written.Reset()
}

// Closed reports how many times Close was called.
func (p *FakePipe) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
