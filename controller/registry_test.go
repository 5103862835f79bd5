package controller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedManager(t *testing.T, serial string) *Manager {
	t.Helper()
	_, io := newFakeDevice(t)
	m, err := New("adb", serial, DefaultConfig, adbOptions, io)
	require.NoError(t, err)
	require.NoError(t, m.Connect())
	return m
}

func TestRegistry_GetAndRemove(t *testing.T) {
	r := NewRegistry(4)
	a := connectedManager(t, "emulator-5554")
	r.Register(a)

	got, ok := r.Get("emulator-5554")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Get("emulator-5556")
	assert.False(t, ok)

	assert.True(t, r.Remove("emulator-5554"))
	assert.False(t, a.Connected(), "removal deinitializes")
	assert.Zero(t, r.Len())
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(2)
	a := connectedManager(t, "emulator-5554")
	b := connectedManager(t, "emulator-5556")
	c := connectedManager(t, "emulator-5558")

	r.Register(a)
	r.Register(b)
	_, _ = r.Get("emulator-5554")
	r.Register(c)

	assert.Equal(t, 2, r.Len())
	assert.True(t, a.Connected())
	assert.False(t, b.Connected())
	assert.True(t, c.Connected())
}

func TestRegistry_ReplaceSameSerial(t *testing.T) {
	r := NewRegistry(0)
	a := connectedManager(t, "emulator-5554")
	b := connectedManager(t, "emulator-5554")

	r.Register(a)
	r.Register(a)
	assert.True(t, a.Connected())

	r.Register(b)
	assert.False(t, a.Connected())
	assert.True(t, b.Connected())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CleanupAll(t *testing.T) {
	r := NewRegistry(4)
	r.CleanupAll()

	a := connectedManager(t, "emulator-5554")
	b := connectedManager(t, "192.168.1.20:5555")
	r.Register(a)
	r.Register(b)

	r.CleanupAll()
	assert.False(t, a.Connected())
	assert.False(t, b.Connected())
	assert.Zero(t, r.Len())
}

func TestShutdown(t *testing.T) {
	s := NewShutdown()
	assert.NoError(t, s.Run())

	var order []string
	s.Register("first", func() error { order = append(order, "first"); return nil })
	s.Register("failing", func() error { order = append(order, "failing"); return errors.New("busy") })
	s.Register("last", func() error { order = append(order, "last"); return nil })
	assert.Equal(t, 3, s.Len())

	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: busy")
	assert.Equal(t, []string{"last", "failing", "first"}, order)
	assert.Zero(t, s.Len())
}
