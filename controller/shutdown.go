package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mobile-next/adbctl/utils"
)

// Shutdown collects cleanup steps run on SIGINT/SIGTERM. Steps run last
// registered first, so resources are released in reverse order of creation.
type Shutdown struct {
	mu    sync.Mutex
	steps []shutdownStep
}

type shutdownStep struct {
	name string
	fn   func() error
}

func NewShutdown() *Shutdown {
	return &Shutdown{}
}

// Register adds a named cleanup step.
func (s *Shutdown) Register(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, shutdownStep{name: name, fn: fn})
	utils.Verbose("registered shutdown step %s", name)
}

// Run executes every step even when some fail, then forgets them.
func (s *Shutdown) Run() error {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		utils.Verbose("running shutdown step %s", step.name)
		if err := step.fn(); err != nil {
			utils.Verbose("shutdown step %s failed: %v", step.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of pending steps.
func (s *Shutdown) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}
