package loaders

import (
	"context"
	"os"
	"path/filepath"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// TxtLoader implements the Loader interface for plain text files.
type TxtLoader struct{}

// NewTxtLoader creates a new TxtLoader.
func NewTxtLoader() *TxtLoader {
	return &TxtLoader{}
}

// Load reads a text file and returns it as a single SourceDocument. The
// file path doubles as the stable source id, so re-indexing the same
// file yields the same document identity.
func (l *TxtLoader) Load(ctx context.Context, path string) (*schema.SourceDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &schema.SourceDocument{
		SourceID:   path,
		Text:       string(content),
		SourceType: "document",
		Metadata: map[string]interface{}{
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}, nil
}

// compile-time check to ensure TxtLoader implements the Loader interface
var _ interfaces.Loader = (*TxtLoader)(nil)
