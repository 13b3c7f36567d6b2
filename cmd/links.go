package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"lensreport/internal/config"
	"lensreport/internal/drive"
	"lensreport/internal/tui"
)

var linksCmd = &cobra.Command{
	Use:   "links <folder-url>",
	Short: "List the image links found in a shared folder without searching them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		extractor := drive.NewExtractor(cfg.DriveBaseURL, cfg.HTTPTimeout)
		listing, err := extractor.ExtractListing(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to read folder: %w", err)
		}

		out := cmd.OutOrStdout()
		if listing.Title != "" {
			fmt.Fprintf(out, "%s\n", linksTitleStyle.Render(listing.Title))
		}
		if len(listing.Images) == 0 {
			fmt.Fprintf(out, "  %s %s\n", linksBulletStyle.Render("-"), linksDimStyle.Render("no images"))
			return nil
		}
		for _, ref := range listing.Images {
			fmt.Fprintf(out, "  %s %s\n", linksBulletStyle.Render("-"), linksIDStyle.Render(ref.ID))
			fmt.Fprintf(out, "    %s\n", linksValueStyle.Render(ref.Name))
			fmt.Fprintf(out, "    %s\n", linksDimStyle.Render(ref.URL))
		}
		fmt.Fprintf(out, "\n%d image(s)\n", len(listing.Images))
		return nil
	},
}

var (
	linksTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	linksIDStyle     = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	linksValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	linksDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	linksBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(linksCmd)
}
