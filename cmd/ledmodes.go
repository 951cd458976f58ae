package cmd

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/logging"
)

// CreateLedModesCmd creates the ledmodes command, which prints the capability
// entry the daemon would use on this machine as a [[led_data]] table.
func CreateLedModesCmd() *cobra.Command {
	var sysfsRoot, ledModesPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ledmodes",
		Short: "Print the detected keyboard LED capabilities",
		Long: `Reads the DMI product family and board name, looks them up in the led modes ` +
			`database and prints the matching entry. Unknown laptops get the fallback entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := "error"
			if verbose {
				level = "info"
			}
			logging.Initialize(logging.Config{Level: level, Format: "text"})

			data := aura.DetectLedData(sysfsRoot, ledModesPath, logging.GetLogger("aura"))
			out, err := toml.Marshal(struct {
				LedData []aura.LaptopLedData `toml:"led_data"`
			}{LedData: []aura.LaptopLedData{data}})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&sysfsRoot, "sysfs", "/sys", "sysfs mount point")
	cmd.Flags().StringVar(&ledModesPath, "ledmodes", aura.DefaultLedModesPath, "LED modes database, the built-in one is used when missing")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log how the entry was chosen")
	return cmd
}
