package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobile-next/adbctl/cli"
	"github.com/mobile-next/adbctl/commands"
	"github.com/mobile-next/adbctl/controller"
)

func main() {
	// managers hold minitouch/maatouch sessions, minicap daemons and
	// forwarded ports that must be released on exit
	registry := controller.NewRegistry(0)
	commands.SetRegistry(registry)

	shutdown := controller.NewShutdown()
	shutdown.Register("managers", func() error {
		registry.CleanupAll()
		return nil
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute()
	}()

	select {
	case <-sigChan:
		if err := shutdown.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(0)
	case err := <-done:
		if cleanupErr := shutdown.Run(); cleanupErr != nil {
			fmt.Fprintln(os.Stderr, cleanupErr)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
