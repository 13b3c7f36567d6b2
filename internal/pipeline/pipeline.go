package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"lensreport/internal/fetcher"
	"lensreport/internal/model"
	"lensreport/internal/report"
	"lensreport/internal/telemetry"
)

const (
	percentExtracted = 20
	percentLoopSpan  = 60
	percentReport    = 90
	percentDone      = 100
)

// Run processes every image in the folder one at a time and writes the
// report into opts.OutputDir.
func Run(ctx context.Context, folderURL string, opts Options, deps Deps, progress ProgressFunc) (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRunFailed, r)
			logf(ctx, "%v", err)
			telemetry.CaptureError(ctx, err)
		}
	}()

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	p := &progressTracker{fn: progress}

	logf(ctx, "Extracting images from %s", folderURL)
	p.report(0, "Extracting images from folder...")
	telemetry.AddBreadcrumb(ctx, "pipeline", "extract")
	images := deps.Extractor.Extract(ctx, folderURL)
	p.report(percentExtracted, fmt.Sprintf("Found %d images", len(images)))
	summary.Discovered = len(images)

	if len(images) == 0 {
		return summary, ErrNoImages
	}

	temps := &tempFiles{}
	defer func() {
		if opts.KeepTemp {
			return
		}
		temps.cleanup()
	}()

	var results []model.ImageResult
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		p.report(percentExtracted+percentLoopSpan*(i+1)/len(images),
			fmt.Sprintf("Processing image %d/%d", i+1, len(images)))

		tempPath := fetcher.TempPath(opts.WorkDir, img.ID)
		temps.add(tempPath)

		result, ok := processImage(ctx, img, tempPath, deps, &summary)
		if ok {
			results = append(results, result)
		}
	}

	if len(results) == 0 {
		logf(ctx, "No image produced visual matches; no report written")
		return summary, nil
	}

	p.report(percentReport, "Generating Excel report...")
	telemetry.AddBreadcrumb(ctx, "pipeline", "report")

	path := filepath.Join(opts.OutputDir, report.Filename(now()))
	if err := deps.Report.Write(results, path); err != nil {
		logf(ctx, "Error saving Excel file: %v", err)
		return summary, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}

	summary.ReportPath = path
	logf(ctx, "Report written to %s (%d rows)", path, len(results))
	p.report(percentDone, "Processing complete!")
	return summary, nil
}

func processImage(ctx context.Context, img model.ImageRef, tempPath string, deps Deps, summary *Summary) (model.ImageResult, bool) {
	fetched, err := deps.Fetcher.Fetch(ctx, img, tempPath)
	if err != nil {
		logf(ctx, "Error processing image %s: %v", img.ID, err)
		summary.Failed++
		return model.ImageResult{}, false
	}
	if !fetched {
		summary.Skipped++
		return model.ImageResult{}, false
	}
	summary.Fetched++

	matches, err := deps.Searcher.Search(ctx, img.URL)
	if err != nil {
		logf(ctx, "Error in visual search for %s: %v", img.ID, err)
		matches = nil
	}
	if len(matches) == 0 {
		summary.NoMatches++
		return model.ImageResult{}, false
	}

	analysis := deps.Summarizer.Summarize(ctx, matches)
	summary.Analyzed++
	return model.ImageResult{
		Name:          img.Name,
		TempImagePath: tempPath,
		Analysis:      analysis,
	}, true
}

// logf prefixes pipeline log lines with the run identifier when ctx has one.
func logf(ctx context.Context, format string, args ...any) {
	if id := telemetry.RunID(ctx); id != "" {
		log.Printf("[Pipeline] run=%s "+format, append([]any{id}, args...)...)
		return
	}
	log.Printf("[Pipeline] "+format, args...)
}

type progressTracker struct {
	fn   ProgressFunc
	last int
}

func (p *progressTracker) report(percent int, status string) {
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	if p.fn != nil {
		p.fn(ProgressUpdate{Percent: percent, Status: status})
	}
}

type tempFiles struct {
	paths []string
	seen  map[string]struct{}
}

func (t *tempFiles) add(path string) {
	if t.seen == nil {
		t.seen = make(map[string]struct{})
	}
	if _, ok := t.seen[path]; ok {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

func (t *tempFiles) cleanup() {
	for _, path := range t.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[Pipeline] Failed to remove %s: %v", path, err)
		}
	}
}
