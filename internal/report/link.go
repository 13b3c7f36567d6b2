package report

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadLink returns an HTML anchor carrying the workbook at path inline
// as a data URI.
func DownloadLink(path, name string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(`<a href="data:%s;base64,%s" download="%s">Download Excel Report</a>`,
		xlsxMediaType, b64, html.EscapeString(name)), nil
}
