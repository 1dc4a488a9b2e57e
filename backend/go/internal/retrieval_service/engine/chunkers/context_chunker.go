package chunkers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

// DefaultChunkSize is the default window size in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive windows.
const DefaultChunkOverlap = 100

// contextAttempts bounds the optional LLM context hook: one retry, then
// the deterministic header.
const contextAttempts = 2

// ContextChunker splits a source document into overlapping windows and
// attaches a provenance context to each window. The context is either a
// deterministic header or, when a context LLM is configured, a generated
// one-sentence summary of the chunk's relation to the whole document.
//
// Chunk identities are derived from the source identity only, so chunking
// the same source twice yields byte-identical IDs.
type ContextChunker struct {
	chunkSize      int
	overlap        int
	contextLLM     interfaces.LLM
	contextTimeout time.Duration
	log            *logger.Logger
}

// NewContextChunker creates a ContextChunker. Non-positive sizes fall back
// to the defaults; an overlap that is not smaller than the chunk size is
// clamped to a quarter of it.
func NewContextChunker(chunkSize, overlap int, log *logger.Logger) *ContextChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &ContextChunker{
		chunkSize:      chunkSize,
		overlap:        overlap,
		contextTimeout: 10 * time.Second,
		log:            log,
	}
}

// WithContextLLM enables the generated-context mode. The hook is
// best-effort: any failure falls back to the deterministic header and
// never blocks indexing.
func (c *ContextChunker) WithContextLLM(llm interfaces.LLM) *ContextChunker {
	c.contextLLM = llm
	return c
}

// DocumentID computes the deterministic document identity from a source
// identity (its path or external id).
func DocumentID(sourceID string) string {
	sum := sha256.Sum256([]byte(sourceID))
	return hex.EncodeToString(sum[:])[:16]
}

// ChunkID computes the deterministic identity of one chunk.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// Chunk splits the document text into overlapping windows. Empty input
// yields zero chunks and no error; callers treat that as a skip.
func (c *ContextChunker) Chunk(ctx context.Context, doc *schema.SourceDocument) ([]*schema.Chunk, error) {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil, nil
	}

	spans := c.windows(runes)
	documentID := DocumentID(doc.SourceID)
	total := len(spans)

	chunks := make([]*schema.Chunk, 0, total)
	for i, span := range spans {
		raw := string(runes[span[0]:span[1]])

		contextText := c.generatedContext(ctx, doc, raw)
		if contextText == "" {
			contextText = c.deterministicHeader(doc, i, total)
		}

		chunks = append(chunks, &schema.Chunk{
			ID:             ChunkID(documentID, i),
			DocumentID:     documentID,
			Collection:     doc.Collection,
			Index:          i,
			Total:          total,
			RawText:        raw,
			ContextualText: contextText + "\n\n" + raw,
			Metadata:       c.chunkMetadata(doc, i, total),
		})
	}

	return chunks, nil
}

// windows computes the [start, end) rune spans of every chunk. For all but
// the last window the end snaps to the last sentence terminator or newline
// found in the back half of the window; otherwise it hard-cuts at the
// chunk size. The next window starts overlap runes before the actual end,
// so coverage has no gaps regardless of snapping.
func (c *ContextChunker) windows(runes []rune) [][2]int {
	var spans [][2]int
	start := 0
	for {
		end := start + c.chunkSize
		if end >= len(runes) {
			spans = append(spans, [2]int{start, len(runes)})
			return spans
		}

		cut := -1
		for i := end - 1; i > start+c.chunkSize/2; i-- {
			if runes[i] == '.' || runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		if cut > 0 {
			end = cut
		}
		spans = append(spans, [2]int{start, end})

		next := end - c.overlap
		if next <= start {
			// Pathological overlap after snapping; advance without overlap
			// rather than looping forever.
			next = end
		}
		start = next
	}
}

// deterministicHeader builds the reproducible provenance prefix embedded
// ahead of the raw window text.
func (c *ContextChunker) deterministicHeader(doc *schema.SourceDocument, index, total int) string {
	name, _ := doc.Metadata[schema.MetadataKeyFileName].(string)
	if name == "" {
		name = filepath.Base(doc.SourceID)
	}
	sourceType := doc.SourceType
	if sourceType == "" {
		sourceType = "document"
	}
	return fmt.Sprintf("[source: %s | name: %s | chunk %d of %d]", sourceType, name, index+1, total)
}

// generatedContext asks the context LLM for a one-sentence situating
// summary. An empty return means "use the deterministic header".
func (c *ContextChunker) generatedContext(ctx context.Context, doc *schema.SourceDocument, chunkText string) string {
	if c.contextLLM == nil {
		return ""
	}

	prompt := fmt.Sprintf(
		"Here is a document:\n<document>\n%s\n</document>\n\n"+
			"Here is one chunk of it:\n<chunk>\n%s\n</chunk>\n\n"+
			"Write a single short sentence situating this chunk within the overall document. "+
			"Answer with the sentence only.",
		truncateRunes(doc.Text, 8000), chunkText)

	for attempt := 0; attempt < contextAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.contextTimeout)
		answer, err := c.contextLLM.Generate(callCtx, prompt)
		cancel()
		if err == nil {
			if answer = strings.TrimSpace(answer); answer != "" {
				return answer
			}
		} else if c.log != nil {
			c.log.Warn(fmt.Sprintf("Chunk context generation attempt %d failed: %v", attempt+1, err))
		}
	}
	return ""
}

func (c *ContextChunker) chunkMetadata(doc *schema.SourceDocument, index, total int) map[string]interface{} {
	md := make(map[string]interface{}, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	if doc.SourceType != "" {
		md[schema.MetadataKeySourceType] = doc.SourceType
	}
	md["chunk_index"] = index
	md["total_chunks"] = total
	return md
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
