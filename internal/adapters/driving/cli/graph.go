package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage Microsoft Graph tenant settings",
}

var graphSiteClassificationCmd = &cobra.Command{
	Use:   "siteclassification",
	Short: "Manage site classification",
}

var graphSiteClassificationEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enables site classification configuration",
	Long: `Enables site classification by creating the Group.Unified directory setting.

Examples:
  o365 graph siteclassification enable -c "HBI, LBI, Top Secret" -d "HBI"

  o365 graph siteclassification enable -c "HBI, LBI" -d "LBI" \
    --usageGuidelinesUrl "https://contoso.sharepoint.com/sites/policies"`,
	Args: cobra.NoArgs,
	RunE: runSiteClassificationEnable,
}

// Flags for graph siteclassification enable.
var (
	classificationList     string
	classificationDefault  string
	classificationGuideURL string
)

func init() {
	graphSiteClassificationEnableCmd.Flags().StringVarP(
		&classificationList, "classifications", "c", "",
		"comma-separated list of classifications to enable in the tenant")
	graphSiteClassificationEnableCmd.Flags().StringVarP(
		&classificationDefault, "defaultClassification", "d", "",
		"classification to use by default")
	graphSiteClassificationEnableCmd.Flags().StringVar(
		&classificationGuideURL, "usageGuidelinesUrl", "",
		"URL with additional information shown when choosing the classification for a site")

	graphSiteClassificationCmd.AddCommand(graphSiteClassificationEnableCmd)
	graphCmd.AddCommand(graphSiteClassificationCmd)
	rootCmd.AddCommand(graphCmd)
}

func runSiteClassificationEnable(cmd *cobra.Command, _ []string) error {
	if classificationService == nil {
		return errors.New("classification service not initialised")
	}

	setting, err := classificationService.Enable(cmd.Context(), domain.ClassificationSettings{
		Classifications:       classificationList,
		DefaultClassification: classificationDefault,
		UsageGuidelinesURL:    classificationGuideURL,
	})
	if err != nil {
		return err
	}

	if verbose {
		if setting != nil && setting.ID != "" {
			cmd.Printf("Created directory setting %s\n", setting.ID)
		}
		cmd.Println(doneStyle.Render("DONE"))
	}
	return nil
}
