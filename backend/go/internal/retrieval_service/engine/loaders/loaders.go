package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"

	"github.com/gabriel-vasile/mimetype"
)

// ForFile picks a Loader for the given path, by extension first and by
// content sniffing as a fallback.
func ForFile(path string) (interfaces.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".log":
		return NewTxtLoader(), nil
	case ".md", ".markdown":
		return NewMarkdownLoader(), nil
	case ".pdf":
		return NewPdfLoader(), nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type of %s: %w", path, err)
	}
	switch {
	case mtype.Is("application/pdf"):
		return NewPdfLoader(), nil
	case mtype.Is("text/markdown"):
		return NewMarkdownLoader(), nil
	case strings.HasPrefix(mtype.String(), "text/"):
		return NewTxtLoader(), nil
	}
	return nil, fmt.Errorf("unsupported file type %s for %s", mtype.String(), path)
}
