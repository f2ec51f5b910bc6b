// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from uploaded PDFs
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/services"
)

// PDFExtractor implements the Extractor interface using pdfcpu. It
// rejects unusable input with an extraction error before any provider
// work happens.
type PDFExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

var _ interfaces.Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a new PDF text extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	tempDir := filepath.Join(os.TempDir(), "scholia-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text content from PDF bytes
func (e *PDFExtractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", services.NewDomainError(services.KindExtraction, "empty PDF upload", nil)
	}

	// pdfcpu works on files, so stage the upload in the temp dir.
	token := uuid.New().String()
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%s.pdf", token))
	if err := os.WriteFile(tempFile, pdf, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", services.NewDomainError(services.KindExtraction, "unreadable or corrupt PDF", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", token))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", services.NewDomainError(services.KindExtraction, "failed to extract PDF content", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", services.NewDomainError(services.KindExtraction, "PDF contains no extractable text", nil)
	}

	e.logger.Debug().
		Int("page_count", pageCount).
		Int("text_length", len(result)).
		Msg("Extracted PDF text")

	return result, nil
}
