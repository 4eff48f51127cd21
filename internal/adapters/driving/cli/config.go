package cli

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not initialised")
	}

	cfg, err := configStore.Load()
	if err != nil {
		return err
	}

	redacted := cfg.Redacted()
	out, err := toml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	cmd.Printf("%s %s\n\n", keyStyle.Render("Config file:"), configStore.Path())
	cmd.Print(string(out))
	return nil
}
