package cli

import (
	"github.com/mobile-next/adbctl/commands"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices known to the adb server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.DevicesCommand(deviceRequest()))
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a device and pick its backends",
	Long:  `Connects to the device, races the screencap methods when none is configured, and reports the one in use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.ConnectCommand(deviceRequest()))
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Get device info",
	Long:  `Prints the android_id, screen size and orientation of a connected device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.InfoCommand(deviceRequest()))
	},
}

var killServerCmd = &cobra.Command{
	Use:   "kill-server",
	Short: "Stop the adb server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.KillServerCommand(deviceRequest()))
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(killServerCmd)
}
