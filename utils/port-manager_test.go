package utils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenBusy(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	return listener.Addr().(*net.TCPAddr).Port
}

func TestIsPortAvailable(t *testing.T) {
	busy := listenBusy(t)

	tests := []struct {
		name     string
		host     string
		port     int
		expected bool
	}{
		{"any free port", "127.0.0.1", 0, true},
		{"forwarded port in use", "127.0.0.1", busy, false},
		{"ipv6 host", "::1", 0, false},
		{"out of range", "127.0.0.1", 65536, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPortAvailable(tt.host, tt.port))
		})
	}
}

func TestFindAvailablePort(t *testing.T) {
	busy := listenBusy(t)

	tests := []struct {
		name       string
		start, end int
		wantErr    bool
	}{
		{"only port busy", busy, busy, true},
		{"empty range", 10, 9, true},
		{"os assigned", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := FindAvailablePort("127.0.0.1", tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, port)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, port)
		})
	}
}
