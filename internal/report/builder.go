package report

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"lensreport/internal/model"
)

const (
	ThumbnailSize = 200

	minRowHeight   = 200
	lineHeight     = 15
	maxRowHeight   = 409
	timestampShape = "20060102_150405"
)

var (
	headers      = []string{"Image", "File Name", "Analysis"}
	columnWidths = map[string]float64{"A": 30, "B": 30, "C": 50}
)

type styles struct {
	header   int
	plain    int
	analysis int
}

// Filename names a report after the current second. Two calls within the
// same second return the same name.
func Filename(now time.Time) string {
	return fmt.Sprintf("report_%s.xlsx", now.Format(timestampShape))
}

// RowHeight is the height of a data row holding analysis.
func RowHeight(analysis string) float64 {
	lines := strings.Count(analysis, "\n") + 1
	height := lines * lineHeight
	if height < minRowHeight {
		height = minRowHeight
	}
	if height > maxRowHeight {
		height = maxRowHeight
	}
	return float64(height)
}

// Build lays out results in a single-sheet workbook. Failures on a single
// row are logged and the row is left partially filled.
func Build(results []model.ImageResult) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header %q: %w", header, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", st.header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, result := range results {
		row := i + 2
		if err := addRow(f, sheet, row, result, st); err != nil {
			log.Printf("[Report] Error adding row %d to Excel: %v", row, err)
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	return f, nil
}

func addRow(f *excelize.File, sheet string, row int, result model.ImageResult, st styles) error {
	a := fmt.Sprintf("A%d", row)
	b := fmt.Sprintf("B%d", row)
	c := fmt.Sprintf("C%d", row)

	// Styles first so the border survives a failed embed.
	if err := f.SetCellStyle(sheet, a, b, st.plain); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, c, c, st.analysis); err != nil {
		return err
	}

	if _, err := os.Stat(result.TempImagePath); err == nil {
		if err := embedThumbnail(f, sheet, a, result); err != nil {
			return err
		}
	}

	if err := f.SetCellValue(sheet, b, result.Name); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, c, result.Analysis); err != nil {
		return err
	}
	return f.SetRowHeight(sheet, row, RowHeight(result.Analysis))
}

func embedThumbnail(f *excelize.File, sheet, cell string, result model.ImageResult) error {
	img, err := imaging.Open(result.TempImagePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", result.TempImagePath, err)
	}

	thumb := imaging.Resize(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	return f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      buf.Bytes(),
		Format: &excelize.GraphicOptions{
			AltText:     result.Name,
			Positioning: "oneCell",
		},
	})
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	st.plain, err = f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return st, fmt.Errorf("cell style: %w", err)
	}
	st.analysis, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return st, fmt.Errorf("analysis style: %w", err)
	}
	return st, nil
}

// Write builds the workbook and saves it to path.
func Write(results []model.ImageResult, path string) error {
	f, err := Build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	log.Printf("[Report] Excel report saved as: %s", path)
	return nil
}
