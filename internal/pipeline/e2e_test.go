package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lensreport/internal/drive"
	"lensreport/internal/fetcher"
	"lensreport/internal/lens"
	"lensreport/internal/report"
	"lensreport/internal/summarize"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.RGBA{G: 0xff, A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRun_EndToEnd(t *testing.T) {
	image1 := pngBytes(t)

	driveServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/drive/folders/shared":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>Shared</title></head><body>
				<a href="https://drive.google.com/file/d/good/view">a</a>
				<a href="https://drive.google.com/file/d/gone/view">b</a>
				<a href="https://drive.google.com/file/d/good/view?usp=drive_link">a again</a>
			</body></html>`)
		case r.URL.Path == "/uc" && r.URL.Query().Get("id") == "good":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(image1)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer driveServer.Close()

	var searches int32
	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&searches, 1)
		assert.Equal(t, driveServer.URL+"/uc?id=good", r.URL.Query().Get("url"))
		fmt.Fprint(w, `{"visual_matches": [{"position": 1, "title": "Green Lamp", "source": "Shop", "price": "$40", "extracted_price": 40, "currency": "USD"}]}`)
	}))
	defer searchServer.Close()

	var completions int32
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&completions, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Lamps around $40."}},
			},
		})
	}))
	defer llmServer.Close()

	workDir := t.TempDir()
	outDir := t.TempDir()

	deps := Deps{
		Extractor: drive.NewExtractor(driveServer.URL, 5*time.Second),
		Fetcher:   fetcher.New(5 * time.Second),
		Searcher:  lens.NewClient("search-key", searchServer.URL, "", 5*time.Second),
		Summarizer: summarize.NewClient(summarize.Config{
			APIKey:  "llm-key",
			BaseURL: llmServer.URL + "/v1/",
		}),
		Report: ReportWriterFunc(report.Write),
	}

	summary, err := Run(context.Background(), "https://drive.google.com/drive/folders/shared",
		Options{WorkDir: workDir, OutputDir: outDir, Now: fixedNow}, deps, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Discovered)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Analyzed)
	assert.EqualValues(t, 1, atomic.LoadInt32(&searches))
	assert.EqualValues(t, 1, atomic.LoadInt32(&completions))

	f, err := excelize.OpenFile(summary.ReportPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "image_good.jpg", rows[1][1])
	assert.Equal(t, "Lamps around $40.", rows[1][2])

	pics, err := f.GetPictures(f.GetSheetName(0), "A2")
	require.NoError(t, err)
	assert.Len(t, pics, 1)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
