package api

import (
	"net/http"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/internal/retrieval_service/service"

	"github.com/gin-gonic/gin"
)

// Handler bundles the HTTP endpoint handlers of the retrieval service.
type Handler struct {
	service *service.RetrievalService
}

// NewHandler creates a new Handler.
func NewHandler(s *service.RetrievalService) *Handler {
	return &Handler{service: s}
}

// SearchRequest is the JSON body of POST /api/v1/search.
type SearchRequest struct {
	Query                string                 `json:"query" binding:"required"`
	Collections          []string               `json:"collections"`
	Filters              map[string]interface{} `json:"filters"`
	TopK                 int                    `json:"topK"`
	PreferredSourceTypes []string               `json:"preferredSourceTypes"`
	PreferredCollections []string               `json:"preferredCollections"`
}

// SearchResult is one hit of the search response.
type SearchResult struct {
	ChunkID      string                 `json:"chunkId"`
	Content      string                 `json:"content"`
	Collection   string                 `json:"collection"`
	Score        float64                `json:"score"`
	FusedScore   float64                `json:"fusedScore"`
	CrossEncoder float64                `json:"crossEncoderScore"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Search handles a retrieval query.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hits, err := h.service.Search(c.Request.Context(), &service.SearchRequest{
		Query:                req.Query,
		Collections:          req.Collections,
		Filters:              req.Filters,
		TopK:                 req.TopK,
		PreferredSourceTypes: req.PreferredSourceTypes,
		PreferredCollections: req.PreferredCollections,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			ChunkID:      hit.ChunkID,
			Content:      hit.Content,
			Collection:   hit.Collection,
			Score:        hit.CombinedScore,
			FusedScore:   hit.FusedScore,
			CrossEncoder: hit.CrossEncoderScore,
			Metadata:     hit.Metadata,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// IndexRequest is the JSON body of POST /api/v1/index. Either text or
// path must be set.
type IndexRequest struct {
	SourceID   string                 `json:"sourceId"`
	Text       string                 `json:"text"`
	Path       string                 `json:"path"`
	Collection string                 `json:"collection" binding:"required"`
	SourceType string                 `json:"sourceType"`
	UserID     string                 `json:"userId"`
	Metadata   map[string]interface{} `json:"metadata"`
	Force      bool                   `json:"force"`
}

// Index handles a document indexing request.
func (h *Handler) Index(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		indexed    bool
		documentID string
		err        error
	)
	switch {
	case req.Path != "":
		indexed, documentID, err = h.service.IndexFile(c.Request.Context(), req.Path, req.Collection, req.UserID, req.Force)
	case req.SourceID != "":
		metadata := req.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		if req.UserID != "" {
			metadata[schema.MetadataKeyUserID] = req.UserID
		}
		doc := &schema.SourceDocument{
			SourceID:   req.SourceID,
			Text:       req.Text,
			Collection: req.Collection,
			SourceType: req.SourceType,
			Metadata:   metadata,
		}
		indexed, documentID, err = h.service.IndexDocument(c.Request.Context(), doc, req.Force)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either path or sourceId must be provided"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"indexed": indexed, "documentId": documentID})
}

// DeleteDocument removes a document from every store.
func (h *Handler) DeleteDocument(c *gin.Context) {
	collection := c.Param("collection")
	sourceID := c.Query("sourceId")
	if sourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sourceId query parameter is required"})
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), collection, sourceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Health reports per-dependency health.
func (h *Handler) Health(c *gin.Context) {
	status := h.service.HealthCheck(c.Request.Context())
	code := http.StatusOK
	for _, v := range status {
		if v != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, status)
}
