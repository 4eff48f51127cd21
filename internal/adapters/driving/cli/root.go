package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// configPath overrides the config file location.
	configPath string

	// Services holds injected service implementations for CLI commands.
	siteRemovalService    driving.SiteRemovalService
	classificationService driving.ClassificationService
	configStore           driven.ConfigStore

	// bootstrap builds services once flags are parsed.
	bootstrap Bootstrap
)

// Services holds configuration for CLI commands.
type Services struct {
	SiteRemoval    driving.SiteRemovalService
	Classification driving.ClassificationService
	Config         driven.ConfigStore
}

// Bootstrap creates services for the given config file path.
// An empty path selects the default location.
type Bootstrap func(configPath string) (*Services, error)

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	siteRemovalService = s.SiteRemoval
	classificationService = s.Classification
	configStore = s.Config
}

// SetBootstrap sets the function that creates services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "o365",
	Short: "Manage Microsoft 365 tenants from the command line",
	Long: `o365 manages SharePoint Online and Microsoft Graph tenant settings.

Credentials are read from ~/.o365/config.toml and O365_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.o365/config.toml)")

	// Use PersistentPreRunE to set verbose mode and build services before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if bootstrap == nil {
			return nil
		}
		s, err := bootstrap(configPath)
		if err != nil {
			return err
		}
		SetServices(s)
		return nil
	}
}
