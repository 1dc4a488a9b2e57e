package loaders

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// MarkdownLoader implements the Loader interface for Markdown files. The
// first level-one heading, when present, becomes the document title.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file and returns it as a single SourceDocument.
func (l *MarkdownLoader) Load(ctx context.Context, path string) (*schema.SourceDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	textContent := string(content)

	title := filepath.Base(path)
	for _, line := range strings.Split(textContent, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			break
		}
	}

	return &schema.SourceDocument{
		SourceID:   path,
		Text:       textContent,
		SourceType: "note",
		Metadata: map[string]interface{}{
			schema.MetadataKeyFileName: title,
		},
	}, nil
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
