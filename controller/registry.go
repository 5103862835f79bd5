package controller

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/adbctl/utils"
)

// DefaultRegistrySize bounds how many devices stay connected at once.
const DefaultRegistrySize = 16

// Registry keeps live managers by serial. Managers evicted for size,
// removed, or dropped by CleanupAll are deinitialized.
type Registry struct {
	mu       sync.Mutex
	managers *lru.Cache[string, *Manager]
}

// NewRegistry creates a registry holding at most size managers.
func NewRegistry(size int) *Registry {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	managers, err := lru.NewWithEvict[string, *Manager](size, func(serial string, m *Manager) {
		utils.Verbose("releasing manager for %s", serial)
		m.Deinit()
	})
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Registry{managers: managers}
}

// Register tracks m under its serial, releasing a different manager that
// held the serial before.
func (r *Registry) Register(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.managers.Peek(m.Serial()); ok && old != m {
		old.Deinit()
	}
	r.managers.Add(m.Serial(), m)
}

// Get returns the manager for serial, if any.
func (r *Registry) Get(serial string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.managers.Get(serial)
}

// Remove releases and forgets the manager for serial.
func (r *Registry) Remove(serial string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.managers.Remove(serial)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.managers.Len()
}

// CleanupAll releases every registered manager.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.managers.Len() == 0 {
		return
	}
	utils.Verbose("cleaning up %d manager(s)", r.managers.Len())
	r.managers.Purge()
}
