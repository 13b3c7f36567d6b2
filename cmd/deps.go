package cmd

import (
	"lensreport/internal/config"
	"lensreport/internal/drive"
	"lensreport/internal/fetcher"
	"lensreport/internal/lens"
	"lensreport/internal/pipeline"
	"lensreport/internal/report"
	"lensreport/internal/summarize"
)

func newDeps(cfg *config.Config) pipeline.Deps {
	return pipeline.Deps{
		Extractor: drive.NewExtractor(cfg.DriveBaseURL, cfg.HTTPTimeout),
		Fetcher:   fetcher.New(cfg.HTTPTimeout),
		Searcher:  lens.NewClient(cfg.SearchAPIKey, cfg.SearchBaseURL, cfg.SearchEngine, cfg.HTTPTimeout),
		Summarizer: summarize.NewClient(summarize.Config{
			APIKey:    cfg.AnthropicAPIKey,
			BaseURL:   cfg.LLMBaseURL,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
			Timeout:   cfg.HTTPTimeout,
		}),
		Report: pipeline.ReportWriterFunc(report.Write),
	}
}
