package resume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/foxseedlab/mensetsukin/internal/resume"
	"github.com/ledongthuc/pdf"
)

type PDFExtractor struct{}

func NewPDFExtractor() resume.TextExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	out := strings.TrimSpace(builder.String())
	if out == "" {
		return "", resume.ErrNoText
	}
	return out, nil
}
