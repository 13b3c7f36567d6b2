package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"lensreport/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "lensreport",
	Short: "lensreport 🔍 - reverse-image search a shared folder into a spreadsheet",
	Long: `lensreport 🔍 scrapes image links from a shared Google Drive folder, runs each
image through a Google Lens search, summarizes the matches with Claude and
writes an Excel report with thumbnails.

Environment variables:
  LENSREPORT_SEARCH_API_KEY     SearchApi.io key (required for run)
  LENSREPORT_ANTHROPIC_API_KEY  Anthropic key (required for run)
  LENSREPORT_SENTRY_DSN         report failures to Sentry (optional)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorError)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
