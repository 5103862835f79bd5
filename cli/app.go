package cli

import (
	"github.com/mobile-next/adbctl/commands"
	"github.com/spf13/cobra"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Start and stop applications",
}

var appStartCmd = &cobra.Command{
	Use:   "start [package or package/activity]",
	Short: "Start an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.StartAppCommand(commands.AppRequest{
			DeviceRequest: deviceRequest(),
			Intent:        args[0],
		}))
	},
}

var appStopCmd = &cobra.Command{
	Use:   "stop [package]",
	Short: "Force-stop an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.StopAppCommand(commands.AppRequest{
			DeviceRequest: deviceRequest(),
			Intent:        args[0],
		}))
	},
}

func init() {
	rootCmd.AddCommand(appCmd)
	appCmd.AddCommand(appStartCmd)
	appCmd.AddCommand(appStopCmd)
}
