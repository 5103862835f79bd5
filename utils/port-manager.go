package utils

import (
	"fmt"
	"net"
)

// IsPortAvailable reports whether host:port can be bound over tcp4, so that
// adb forward can claim it.
func IsPortAvailable(host string, port int) bool {
	listener, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.ParseIP(host), Port: port})
	if err != nil {
		Verbose("port %d on %s is taken: %v", port, host, err)
		return false
	}
	_ = listener.Close()
	return true
}

// FindAvailablePort returns the first port in [start, end] that can be bound on host.
func FindAvailablePort(host string, start, end int) (int, error) {
	for port := start; port <= end; port++ {
		if IsPortAvailable(host, port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d on %s", start, end, host)
}
