package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"verichain/internal/errs"
	core "verichain/verification/service/core"
)

// DocumentHandler encapsulates the logic for handling document HTTP requests.
type DocumentHandler struct {
	svc            *core.Service
	logger         *log.Logger
	maxUploadBytes int64
	publicBaseURL  string
}

// NewDocumentHandler creates a new DocumentHandler. publicBaseURL prefixes
// the download links synthesized in view responses; empty means relative
// links.
func NewDocumentHandler(s *core.Service, maxUploadBytes int64, publicBaseURL string, l *log.Logger) *DocumentHandler {
	return &DocumentHandler{
		svc:            s,
		logger:         l,
		maxUploadBytes: maxUploadBytes,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload handles POST /api/upload requests. The request is multipart form
// data with a "file" part plus docId, ownerId and optional verifiedBy and
// comments fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Printf("HTTP Handler: Failed to parse multipart request: %v", err)
		h.respondError(w, "Bad Request: expected multipart form data", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Field validation happens here, before any ledger session is opened.
	docID := r.FormValue("docId")
	ownerID := r.FormValue("ownerId")
	if docID == "" {
		h.respondError(w, "docId is required", http.StatusBadRequest)
		return
	}
	if ownerID == "" {
		h.respondError(w, "ownerId is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	input := core.UploadRequest{
		DocID:      docID,
		OwnerID:    ownerID,
		VerifiedBy: r.FormValue("verifiedBy"),
		Comments:   r.FormValue("comments"),
		DocHash:    r.FormValue("docHash"),
		FileName:   header.Filename,
		File:       file,
	}

	result, err := h.svc.Upload(r.Context(), input)
	if err != nil {
		h.logger.Printf("HTTP Handler: upload of %s failed: %v", docID, err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}

	respPayload := map[string]interface{}{
		"message":     fmt.Sprintf("Document %s verified and anchored", result.DocID),
		"docId":       result.DocID,
		"docHash":     result.DocHash,
		"txId":        result.TxID,
		"blockHeight": result.Block,
		"status":      result.Status,
	}

	h.respondJSON(w, respPayload, http.StatusOK)
}

// View handles GET /api/view/{docId} requests.
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")

	record, err := h.svc.View(r.Context(), docID)
	if err != nil {
		h.logger.Printf("HTTP Handler: view of %s failed: %v", docID, err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	if record.PayloadB64 == "" {
		// A record without an anchored payload has nothing to serve from the
		// synthesized download URL.
		h.respondError(w, fmt.Sprintf("document %s has no anchored payload", docID), http.StatusNotFound)
		return
	}

	// The payload itself is omitted; clients fetch it from the download URL.
	respPayload := map[string]interface{}{
		"id":          record.DocID,
		"ownerId":     record.OwnerID,
		"docHash":     record.DocHash,
		"verifiedBy":  record.VerifiedBy,
		"timestamp":   record.Timestamp,
		"comments":    record.Comments,
		"status":      record.Status,
		"documentUrl": fmt.Sprintf("%s/api/download/%s", h.publicBaseURL, record.DocID),
	}

	h.respondJSON(w, respPayload, http.StatusOK)
}

// Download handles GET /api/download/{docId} requests and streams the
// anchored payload inline.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")

	data, err := h.svc.Download(r.Context(), docID)
	if err != nil {
		h.logger.Printf("HTTP Handler: download of %s failed: %v", docID, err)
		h.respondError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", docID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Printf("HTTP Handler: failed to stream payload for %s: %v", docID, err)
	}
}

// HealthCheck handles GET /health requests.
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "verification-api",
	}

	h.respondJSON(w, resp, http.StatusOK)
}

// statusFor maps service errors to HTTP status codes. Ledger, connection and
// I/O failures all surface as 500 on this API; callers distinguish them by
// the error message, not the status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends JSON response
func (h *DocumentHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
	}
}

// respondError sends error response
func (h *DocumentHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}

	h.respondJSON(w, errorResp, statusCode)
}
