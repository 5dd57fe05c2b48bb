package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/suvrajeet01/virtex/pkg/config"
	"github.com/suvrajeet01/virtex/pkg/experiment"
)

var (
	dumpDir  string
	dumpName string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and serialize experiment configs",
}

var configShowCmd = &cobra.Command{
	Use:   "show [KEY VALUE]...",
	Short: "Print the resolved config",
	Long: `Print every key of the resolved config: schema defaults, then the config
file, then KEY VALUE override pairs, e.g.

  virtex config show OPTIM.BATCH_SIZE 1024 MODEL.TEXTUAL.DROPOUT 0.2`,
	RunE: runConfigShow,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump [KEY VALUE]...",
	Short: "Write the resolved config to a serialization directory",
	RunE:  runConfigDump,
}

func init() {
	configDumpCmd.Flags().StringVarP(&dumpDir, "out", "o", "", "serialization directory (default: <cache dir>/runs/<name>)")
	configDumpCmd.Flags().StringVarP(&dumpName, "name", "n", "", "run name used in the config registry")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigFile(), args)
	if err != nil {
		return err
	}
	return writeConfigTable(cmd.OutOrStdout(), cfg)
}

func writeConfigTable(w io.Writer, cfg *config.Config) error {
	var data [][]string
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		data = append(data, []string{key, fmt.Sprint(value)})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"KEY", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	exp, err := experiment.Setup(experiment.Options{
		ConfigFile:       resolveConfigFile(),
		Overrides:        args,
		SerializationDir: dumpDir,
		Name:             dumpName,
		DSN:              dsn,
		LogOutput:        os.Stderr,
		Verbose:          verbose,
	})
	if err != nil {
		return err
	}
	defer exp.Close()

	path, err := filepath.Abs(exp.ConfigPath())
	if err != nil {
		path = exp.ConfigPath()
	}
	color.Green("Config for %s written to %s", exp.Name(), path)
	return nil
}
