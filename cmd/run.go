package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lensreport/internal/config"
	"lensreport/internal/pipeline"
	"lensreport/internal/report"
	"lensreport/internal/telemetry"
	"lensreport/internal/tui"
)

const logFileName = "lensreport.log"

var (
	runOutputDir string
	runLink      bool
	runKeepTemp  bool
	runPlain     bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <folder-url>",
	Short: "Search every image in a shared folder and write an Excel report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folderURL := args[0]
		if strings.TrimSpace(folderURL) == "" {
			return fmt.Errorf("please enter a valid folder URL")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(runOutputDir, 0o755); err != nil {
			return err
		}

		if cfg.HasSentry() {
			shutdown, err := telemetry.Init(telemetry.Config{DSN: cfg.SentryDSN, Environment: cfg.Environment})
			if err != nil {
				return err
			}
			defer shutdown()
		}

		runID := uuid.NewString()
		workDir := filepath.Join(cfg.WorkDir, "lensreport-"+runID)
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return err
		}
		if !runKeepTemp {
			defer os.Remove(workDir)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(telemetry.WithRunID(ctx, runID))
		defer cancel()

		opts := pipeline.Options{
			WorkDir:   workDir,
			OutputDir: runOutputDir,
			KeepTemp:  runKeepTemp,
		}

		var summary pipeline.Summary
		if runPlain {
			summary, err = pipeline.Run(ctx, folderURL, opts, newDeps(cfg), printProgress(cmd.OutOrStdout()))
		} else {
			summary, err = runWithTUI(ctx, cancel, folderURL, opts, cfg)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(tui.RowsFor(summary)))
		if err != nil {
			return runError(ctx, err)
		}

		if summary.ReportPath == "" {
			fmt.Fprintln(out, runWarnStyle.Render("No image produced visual matches; no report written."))
			return nil
		}

		if runLink {
			linkPath := strings.TrimSuffix(summary.ReportPath, filepath.Ext(summary.ReportPath)) + ".html"
			if err := writeDownloadLink(summary.ReportPath, linkPath); err != nil {
				log.Printf("[Run] Failed to write download link: %v", err)
			} else {
				fmt.Fprintf(out, "Download link written to: %s\n", linkPath)
			}
		}

		outPath := summary.ReportPath
		if abs, absErr := filepath.Abs(outPath); absErr == nil {
			outPath = abs
		}
		fmt.Fprintln(out, runOKStyle.Render("Report generated successfully!"))
		fmt.Fprintf(out, "Report written to: %s\n", outPath)
		return nil
	},
}

// runWithTUI drives the pipeline behind the progress view. Logging goes to a
// file in the output directory while the view owns the terminal.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, folderURL string, opts pipeline.Options, cfg *config.Config) (pipeline.Summary, error) {
	logFile, err := os.OpenFile(filepath.Join(opts.OutputDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer logFile.Close()

	prevOut := log.Writer()
	log.SetOutput(logFile)
	defer log.SetOutput(prevOut)

	updates := make(chan pipeline.ProgressUpdate, 64)
	model := tui.NewModel(updates).WithCancel(cancel)
	program := tea.NewProgram(model)

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
		for range updates {
		}
	}()

	summary, runErr := pipeline.Run(ctx, folderURL, opts, newDeps(cfg), func(u pipeline.ProgressUpdate) {
		updates <- u
	})

	close(updates)
	<-uiDone
	return summary, runErr
}

func printProgress(w io.Writer) pipeline.ProgressFunc {
	return func(u pipeline.ProgressUpdate) {
		fmt.Fprintf(w, "[%3d%%] %s\n", u.Percent, u.Status)
	}
}

// runError maps a pipeline failure to the message shown to the operator.
func runError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrNoImages):
		return err
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("run interrupted")
	case errors.Is(err, pipeline.ErrReportFailed):
		telemetry.CaptureError(ctx, err)
		return pipeline.ErrReportFailed
	case errors.Is(err, pipeline.ErrRunFailed):
		return err
	default:
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("%w: %v", pipeline.ErrRunFailed, err)
	}
}

func writeDownloadLink(reportPath, linkPath string) error {
	anchor, err := report.DownloadLink(reportPath, filepath.Base(reportPath))
	if err != nil {
		return err
	}
	return os.WriteFile(linkPath, []byte(anchor+"\n"), 0o644)
}

var (
	runOKStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorSuccess)
	runWarnStyle = lipgloss.NewStyle().Foreground(tui.ColorWarn)
)

func init() {
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", ".", "directory the report is written to")
	runCmd.Flags().BoolVar(&runLink, "link", false, "also write an HTML download link next to the report")
	runCmd.Flags().BoolVar(&runKeepTemp, "keep-temp", false, "keep downloaded images after the run")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "print progress lines instead of the interactive view")

	rootCmd.AddCommand(runCmd)
}
