package loaders

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"

	"github.com/ledongthuc/pdf"
)

// PdfLoader implements the Loader interface for PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts the plain text of a PDF and returns it as a single
// SourceDocument. Page structure is flattened; the chunker re-segments
// the text anyway.
func (l *PdfLoader) Load(ctx context.Context, path string) (*schema.SourceDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from pdf %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read pdf text of %s: %w", path, err)
	}

	return &schema.SourceDocument{
		SourceID:   path,
		Text:       buf.String(),
		SourceType: "document",
		Metadata: map[string]interface{}{
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}, nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
