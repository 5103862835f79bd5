package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mobile-next/adbctl/commands"
	"github.com/spf13/cobra"
)

var ioCmd = &cobra.Command{
	Use:   "io",
	Short: "Input operations on a device",
	Long:  `Send taps, swipes, key presses and text to a device through the configured touch and key backends.`,
}

// parseCoords splits "a,b,..." into exactly n integers.
func parseCoords(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("invalid coordinate format. Expected %d comma separated values, got '%s'", n, s)
	}
	values := make([]int, n)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate value '%s', coordinates must be integers", part)
		}
		values[i] = v
	}
	return values, nil
}

var ioTapCmd = &cobra.Command{
	Use:   "tap [x,y]",
	Short: "Tap on a device screen at the given coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoords(args[0], 2)
		if err != nil {
			return printResponse(commands.NewErrorResponse(err))
		}
		return printResponse(commands.TapCommand(commands.TapRequest{
			DeviceRequest: deviceRequest(),
			X:             coords[0],
			Y:             coords[1],
		}))
	},
}

var ioSwipeCmd = &cobra.Command{
	Use:   "swipe [x1,y1,x2,y2]",
	Short: "Swipe on a device screen from one point to another",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoords(args[0], 4)
		if err != nil {
			return printResponse(commands.NewErrorResponse(err))
		}
		return printResponse(commands.SwipeCommand(commands.SwipeRequest{
			DeviceRequest: deviceRequest(),
			X1:            coords[0],
			Y1:            coords[1],
			X2:            coords[2],
			Y2:            coords[3],
			Duration:      swipeDuration,
		}))
	},
}

var ioKeyCmd = &cobra.Command{
	Use:   "key [keycode]",
	Short: "Press an Android key code",
	Long:  `Sends a key press, e.g. 3 for HOME, 4 for BACK or 66 for ENTER.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return printResponse(commands.NewErrorResponse(fmt.Errorf("invalid key code '%s'", args[0])))
		}
		return printResponse(commands.KeyCommand(commands.KeyRequest{
			DeviceRequest: deviceRequest(),
			KeyCode:       code,
		}))
	},
}

var ioTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Send text input to a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.TextCommand(commands.TextRequest{
			DeviceRequest: deviceRequest(),
			Text:          args[0],
		}))
	},
}

func init() {
	rootCmd.AddCommand(ioCmd)

	ioCmd.AddCommand(ioTapCmd)
	ioCmd.AddCommand(ioSwipeCmd)
	ioCmd.AddCommand(ioKeyCmd)
	ioCmd.AddCommand(ioTextCmd)

	ioSwipeCmd.Flags().IntVarP(&swipeDuration, "duration", "d", 0, "swipe duration in milliseconds (0 for the backend default)")
}
