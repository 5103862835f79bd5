package unit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/utils"
)

const (
	// DefaultTimeout bounds generic commands.
	DefaultTimeout = 20 * time.Second
	// LongTimeout bounds connect and kill-server.
	LongTimeout = 60 * time.Second
)

var (
	// ErrNoIO is returned when a unit runs a command before SetIO.
	ErrNoIO = errors.New("unit has no io bound")

	// ErrUnresolvedToken is returned when a generated argv still carries placeholders.
	ErrUnresolvedToken = errors.New("unresolved replacement token")
)

// Unit is a node in the control unit tree.
type Unit interface {
	Parse(cfg Config) error
	SetIO(io IO)
	SetReplacement(r Replacement)
	MergeReplacement(r Replacement, override bool)
}

// Base carries the state shared by every unit: children, the transport
// handle and the replacement map. Setters reach children before the unit
// itself and are safe to call twice on a child shared by two parents.
type Base struct {
	children    []Unit
	io          IO
	replacement Replacement
}

// AddChild registers u as a child. Nil children are ignored.
func (b *Base) AddChild(children ...Unit) {
	for _, c := range children {
		if c != nil {
			b.children = append(b.children, c)
		}
	}
}

// Children returns the registered children.
func (b *Base) Children() []Unit {
	return b.children
}

func (b *Base) SetIO(io IO) {
	for _, c := range b.children {
		c.SetIO(io)
	}
	b.io = io
}

func (b *Base) SetReplacement(r Replacement) {
	for _, c := range b.children {
		c.SetReplacement(r)
	}
	b.replacement = r.Clone()
}

func (b *Base) MergeReplacement(r Replacement, override bool) {
	for _, c := range b.children {
		c.MergeReplacement(r, override)
	}
	if b.replacement == nil {
		b.replacement = Replacement{}
	}
	b.replacement.Merge(r, override)
}

// IO returns the bound transport.
func (b *Base) IO() IO {
	return b.io
}

// Replacement returns a copy of the unit's replacement map.
func (b *Base) Replacement() Replacement {
	return b.replacement.Clone()
}

// ParseChildren parses every child, returning the first error.
func (b *Base) ParseChildren(cfg Config) error {
	for _, c := range b.children {
		if err := c.Parse(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Generate fills argv from the unit's replacement map overridden by extra.
func (b *Base) Generate(argv Argv, extra Replacement) []string {
	return argv.Generate(b.replacement.With(extra))
}

// resolve generates argv with extra, failing when the template carries a
// token without a value.
func (b *Base) resolve(argv Argv, extra Replacement) ([]string, error) {
	r := b.replacement.With(extra)
	if tokens := argv.Unresolved(r); len(tokens) > 0 {
		utils.Error("command %q has unresolved tokens %v", strings.Join(argv.Raw(), " "), tokens)
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedToken, strings.Join(tokens, ", "))
	}
	return argv.Generate(r), nil
}

// Command generates argv with extra and runs it.
func (b *Base) Command(argv Argv, extra Replacement, recvBySocket bool, timeout time.Duration) ([]byte, error) {
	if b.io == nil {
		return nil, ErrNoIO
	}
	args, err := b.resolve(argv, extra)
	if err != nil {
		return nil, err
	}
	return b.RunCommand(args, recvBySocket, timeout)
}

// RunCommand executes an already generated argv through the bound transport.
func (b *Base) RunCommand(args []string, recvBySocket bool, timeout time.Duration) ([]byte, error) {
	if b.io == nil {
		return nil, ErrNoIO
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	output, err := b.io.Run(args, recvBySocket, timeout)
	utils.Verbose("command %q finished in %s", strings.Join(args, " "), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("command %s failed: %w", args[0], err)
	}
	return output, nil
}

// Interactive generates argv with extra and opens a persistent pipe.
func (b *Base) Interactive(argv Argv, extra Replacement) (Pipe, error) {
	if b.io == nil {
		return nil, ErrNoIO
	}
	args, err := b.resolve(argv, extra)
	if err != nil {
		return nil, err
	}
	utils.Verbose("starting interactive %q", strings.Join(args, " "))
	return b.io.Interactive(args)
}
