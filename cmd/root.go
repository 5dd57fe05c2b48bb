package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suvrajeet01/virtex/pkg/config"
	"github.com/suvrajeet01/virtex/pkg/database"
	"github.com/suvrajeet01/virtex/pkg/embedding"
	"github.com/suvrajeet01/virtex/pkg/experiment"
)

var (
	configFile string
	dsn        string
	silent     bool
	verbose    bool
)

var Verbose bool

var rootCmd = &cobra.Command{
	Use:   "virtex",
	Short: "vision and language pretraining toolkit",
	Long:  `config management and textual embeddings for captioning-based visual pretraining`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Verbose = verbose
		if verbose {
			setDebugLogFunctions()
		}
		if !silent && cmd.Name() != versionCmd.Name() {
			printBanner()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func DebugLog(format string, args ...interface{}) {
	if Verbose {
		fmt.Printf("[DBG] "+format+"\n", args...)
	}
}

func setDebugLogFunctions() {
	config.DebugLog = DebugLog
	embedding.DebugLog = DebugLog
	experiment.DebugLog = DebugLog
	database.DebugLog = DebugLog
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: config.yaml, configs/config.yaml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("VIRTEX_DSN"), "postgres DSN of the config registry (default: $VIRTEX_DSN)")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "silent mode - no banner")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(embedCmd)
}

// resolveConfigFile returns the --config flag, falling back to the usual
// locations.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}

func printBanner() {
	banner := color.CyanString(`
┬  ┬┬┬─┐┌┬┐┌─┐─┐ ┬
└┐┌┘│├┬┘ │ ├┤ ┌┴┬┘
 └┘ ┴┴└─ ┴ └─┘┴ └─`)
	info := color.HiBlackString("visual representations from textual annotations")
	fmt.Fprintln(os.Stderr, banner)
	fmt.Fprintln(os.Stderr, info)
	fmt.Fprintln(os.Stderr)
}
