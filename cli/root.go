package cli

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mobile-next/adbctl/commands"
	"github.com/mobile-next/adbctl/utils"
	"github.com/spf13/cobra"
)

const version = "dev"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "adbctl",
	Short: "Control an Android device over adb",
	Long:  `Captures the screen and injects touch and key input on an Android device through adb, minicap, minitouch and maatouch.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadHostConfig(hostConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", hostConfigPath, err)
		}
		hostConfig = cfg
		return nil
	},
}

func initConfig() {
	utils.SetVerbose(verbose)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&hostConfigPath, "host-config", utils.DefaultHostConfigPath(), "ini file with adb defaults")
	flags.StringVar(&adbPath, "adb", "", "path to the adb executable (env "+utils.EnvAdbPath+")")
	flags.StringVarP(&serial, "serial", "s", "", "serial of the device (env "+utils.EnvAdbSerial+")")
	flags.StringVar(&configPath, "config", "", "JSON controller config with command templates and prebuilt paths")
	flags.StringVar(&screencapMethod, "screencap", "", "screencap method: RawByNetcat, RawWithGzip, Encode, EncodeToFileAndPull, MinicapDirect, MinicapStream or FastestWay")
	flags.StringVar(&touchMethod, "touch", "", "touch method: auto, adb, minitouch or maatouch")
	flags.StringVar(&keyMethod, "key", "", "key method: auto, adb or maatouch")
}

// Execute runs the root command
func Execute() error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}

// printResponse prints response and turns an error status into an error.
func printResponse(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}
