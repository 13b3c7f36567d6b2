package pipeline

import (
	"context"
	"errors"
	"time"

	"lensreport/internal/model"
)

var (
	ErrNoImages     = errors.New("no images found in the folder")
	ErrReportFailed = errors.New("failed to create Excel report")
	ErrRunFailed    = errors.New("an error occurred")
)

type Extractor interface {
	Extract(ctx context.Context, folderURL string) []model.ImageRef
}

type Fetcher interface {
	Fetch(ctx context.Context, ref model.ImageRef, destPath string) (bool, error)
}

type Searcher interface {
	Search(ctx context.Context, imageURL string) ([]model.MatchRecord, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, matches []model.MatchRecord) string
}

type ReportWriter interface {
	Write(results []model.ImageResult, path string) error
}

// ReportWriterFunc adapts a plain function to ReportWriter.
type ReportWriterFunc func(results []model.ImageResult, path string) error

func (f ReportWriterFunc) Write(results []model.ImageResult, path string) error {
	return f(results, path)
}

type Deps struct {
	Extractor  Extractor
	Fetcher    Fetcher
	Searcher   Searcher
	Summarizer Summarizer
	Report     ReportWriter
}

type Options struct {
	WorkDir   string
	OutputDir string
	KeepTemp  bool
	Now       func() time.Time
}

type Summary struct {
	Discovered int
	Fetched    int
	Skipped    int
	Failed     int
	NoMatches  int
	Analyzed   int
	ReportPath string
}

type ProgressUpdate struct {
	Percent int
	Status  string
}

// ProgressFunc observes a run. Percent never decreases within a run.
type ProgressFunc func(ProgressUpdate)
