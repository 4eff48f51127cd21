package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var spoCmd = &cobra.Command{
	Use:   "spo",
	Short: "Manage SharePoint Online",
}

var spoSiteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage SharePoint Online sites",
}

var spoSiteClassicCmd = &cobra.Command{
	Use:   "classic",
	Short: "Manage classic SharePoint Online sites",
}

var spoSiteClassicRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Removes the specified site",
	Long: `Removes the specified site collection through the tenant admin site.

Removing a site is a long running operation. Unless --wait is set the command
returns as soon as SharePoint accepts the request. With --wait the command keeps
running until SharePoint reports the operation complete. Press Ctrl+C to stop
waiting; the removal continues on the server.

Examples:
  # Remove a site, moving it to the recycle bin
  o365 spo site classic remove --url https://contoso.sharepoint.com/sites/demosite

  # Remove a site permanently and wait for completion
  o365 spo site classic remove --url https://contoso.sharepoint.com/sites/project-x --wait --skipRecycleBin

  # Remove a site from the recycle bin without prompting
  o365 spo site classic remove -u https://contoso.sharepoint.com/sites/old --fromRecycleBin --confirm`,
	Args: cobra.NoArgs,
	RunE: runSiteClassicRemove,
}

// Flags for spo site classic remove.
var (
	removeURL            string
	removeSkipRecycleBin bool
	removeFromRecycleBin bool
	removeWait           bool
	removeConfirm        bool
)

// Terminal access, replaced in tests.
var (
	stdin       io.Reader = os.Stdin
	progressOut io.Writer = os.Stderr
	isTerminal            = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	interrupts            = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		return ch, func() { signal.Stop(ch) }
	}
)

func init() {
	spoSiteClassicRemoveCmd.Flags().StringVarP(&removeURL, "url", "u", "", "URL of the site to remove")
	spoSiteClassicRemoveCmd.Flags().BoolVar(
		&removeSkipRecycleBin, "skipRecycleBin", false,
		"remove the site without moving it to the recycle bin")
	spoSiteClassicRemoveCmd.Flags().BoolVar(
		&removeFromRecycleBin, "fromRecycleBin", false,
		"remove a previously deleted site from the recycle bin")
	spoSiteClassicRemoveCmd.Flags().BoolVar(&removeWait, "wait", false, "wait for the site to be removed")
	spoSiteClassicRemoveCmd.Flags().BoolVar(&removeConfirm, "confirm", false, "don't prompt for confirming removing the site")
	spoSiteClassicRemoveCmd.MarkFlagsMutuallyExclusive("skipRecycleBin", "fromRecycleBin")

	spoSiteClassicCmd.AddCommand(spoSiteClassicRemoveCmd)
	spoSiteCmd.AddCommand(spoSiteClassicCmd)
	spoCmd.AddCommand(spoSiteCmd)
	rootCmd.AddCommand(spoCmd)
}

func runSiteClassicRemove(cmd *cobra.Command, _ []string) error {
	if siteRemovalService == nil {
		return errors.New("site removal service not initialised")
	}
	if err := domain.ValidateSharePointURL(removeURL); err != nil {
		return err
	}

	if !removeConfirm {
		ok, err := confirm(cmd, fmt.Sprintf("Are you sure you want to remove the site %s?", removeURL))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigs, stop := interrupts()
	defer stop()
	go func() {
		for {
			select {
			case <-sigs:
				// The first interrupt stops a pending wait; without one, abandon the request.
				if !siteRemovalService.Cancel() {
					cancel()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	err := siteRemovalService.RemoveClassicSite(ctx, domain.RemoveSiteOptions{
		URL:            removeURL,
		SkipRecycleBin: removeSkipRecycleBin,
		FromRecycleBin: removeFromRecycleBin,
		Wait:           removeWait,
	})
	switch {
	case errors.Is(err, domain.ErrPollCancelled):
		cmd.PrintErrln(warnStyle.Render("Stopped waiting. The site removal continues in SharePoint Online."))
		return nil
	case err != nil:
		return err
	}

	if verbose {
		cmd.Println(doneStyle.Render("DONE"))
	}
	return nil
}

// confirm asks a yes/no question on stdin. The default answer is no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminal() {
		return false, fmt.Errorf("%w: stdin is not a terminal, use --confirm to skip the prompt", domain.ErrInvalidInput)
	}

	cmd.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(stdin)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Progress prints a dot for every poll of a pending operation in verbose mode.
func Progress(_ int, op domain.Operation) {
	if verbose && !op.IsComplete {
		fmt.Fprint(progressOut, ".")
	}
}
