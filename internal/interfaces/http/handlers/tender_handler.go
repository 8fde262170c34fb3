package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apptender "github.com/turtacn/Tender-Intelligence/internal/application/tender"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
)

// TenderHandler exposes the extraction service over REST.
type TenderHandler struct {
	service apptender.Service
}

// NewTenderHandler builds the handler.
func NewTenderHandler(service apptender.Service) *TenderHandler {
	return &TenderHandler{service: service}
}

// ExtractRequest is the body of POST /extractions.
type ExtractRequest struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text" binding:"required"`
}

// SubmitRequest is the body of POST /documents.
type SubmitRequest struct {
	DocumentID  string `json:"document_id"`
	Content     string `json:"content" binding:"required"`
	ContentType string `json:"content_type"`
}

// Extract runs the pipeline synchronously and returns the produced records.
func (h *TenderHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text is required")
		return
	}

	out, err := h.service.Extract(c.Request.Context(), &apptender.ExtractInput{
		DocumentID: req.DocumentID,
		Text:       req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, out)
}

// Submit stores a document body for asynchronous extraction.
func (h *TenderHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}

	out, err := h.service.SubmitDocument(c.Request.Context(), &apptender.SubmitInput{
		DocumentID:  req.DocumentID,
		Data:        []byte(req.Content),
		ContentType: req.ContentType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusAccepted, out)
}

// GetRecord returns one persisted record by id.
func (h *TenderHandler) GetRecord(c *gin.Context) {
	row, err := h.service.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, row)
}

// ListByDocument returns every record extracted from one document.
func (h *TenderHandler) ListByDocument(c *gin.Context) {
	rows, err := h.service.ListByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// DeleteDocument removes a document's records from storage and index.
func (h *TenderHandler) DeleteDocument(c *gin.Context) {
	deleted, err := h.service.DeleteDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": deleted})
}

// ListRecords searches persisted records with filters and pagination.
func (h *TenderHandler) ListRecords(c *gin.Context) {
	input := &apptender.SearchInput{
		Keyword:       c.Query("keyword"),
		Univers:       c.Query("univers"),
		Statut:        c.Query("statut"),
		OnlyValid:     c.Query("only_valid") == "true",
		MinConfidence: queryFloat(c, "min_confidence"),
		Page:          queryInt(c, "page"),
		PageSize:      queryInt(c, "page_size"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
	}

	out, err := h.service.Search(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, out.Rows, common.Pagination{
		Page:     out.Page,
		PageSize: out.PageSize,
		Total:    int64(out.Total),
	})
}

// FullTextSearch queries the search index.
func (h *TenderHandler) FullTextSearch(c *gin.Context) {
	q := opensearch.TenderQuery{
		Keyword:       c.Query("q"),
		Univers:       c.Query("univers"),
		Statut:        c.Query("statut"),
		OnlyValid:     c.Query("only_valid") == "true",
		MinConfidence: queryFloat(c, "min_confidence"),
		From:          queryInt(c, "from"),
		Size:          queryInt(c, "size"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
	}

	result, err := h.service.FullTextSearch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(c *gin.Context, name string) float64 {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil {
		return 0
	}
	return v
}

//Personal.AI order the ending
