package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"verichain/internal/blob"
	"verichain/internal/errs"
	"verichain/internal/models"
	"verichain/review"
)

// ReviewHandler exposes the review state machine over HTTP.
type ReviewHandler struct {
	svc    *review.Service
	blobs  blob.Store
	logger *log.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *review.Service, blobs blob.Store, logger *log.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, blobs: blobs, logger: logger}
}

type actorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (a actorPayload) toModel() models.Actor {
	return models.Actor{ID: a.ID, Name: a.Name, Role: models.Role(a.Role)}
}

// CreateDocument handles POST /api/documents. The payload may carry the file
// content base64-encoded; it is written to the blob store under the given
// file location before the metadata row is created.
func (h *ReviewHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		ID            string `json:"id"`
		OwnerID       string `json:"ownerId"`
		Name          string `json:"name"`
		Type          string `json:"type"`
		FileLocation  string `json:"fileLocation"`
		ContentBase64 string `json:"contentBase64,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if reqPayload.ID == "" {
		reqPayload.ID = uuid.NewString()
	}
	if reqPayload.FileLocation == "" {
		reqPayload.FileLocation = reqPayload.ID
	}

	if reqPayload.ContentBase64 != "" {
		content, err := base64.StdEncoding.DecodeString(reqPayload.ContentBase64)
		if err != nil {
			h.respondError(w, "contentBase64 is not valid base64", http.StatusBadRequest)
			return
		}
		if err := h.blobs.Put(r.Context(), reqPayload.FileLocation, content); err != nil {
			h.logger.Printf("HTTP Handler: failed to store payload for %s: %v", reqPayload.ID, err)
			h.respondError(w, "failed to store document payload", http.StatusInternalServerError)
			return
		}
	}

	doc := &models.Document{
		ID:           reqPayload.ID,
		OwnerID:      reqPayload.OwnerID,
		Name:         reqPayload.Name,
		Type:         reqPayload.Type,
		FileLocation: reqPayload.FileLocation,
		Status:       models.StatusPending,
	}

	created, err := h.svc.CreateDocument(r.Context(), doc)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, created, http.StatusCreated)
}

// GetDocument handles GET /api/documents/{docId}.
func (h *ReviewHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), chi.URLParam(r, "docId"))
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, doc, http.StatusOK)
}

// ListDocuments handles GET /api/documents with an optional status filter.
func (h *ReviewHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	status := models.DocumentStatus(r.URL.Query().Get("status"))
	docs, err := h.svc.ListDocuments(r.Context(), status)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"documents": docs, "count": len(docs)}, http.StatusOK)
}

// StatusLog handles GET /api/documents/{docId}/log.
func (h *ReviewHandler) StatusLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.StatusLog(r.Context(), chi.URLParam(r, "docId"))
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"entries": entries, "count": len(entries)}, http.StatusOK)
}

// StartReview handles POST /api/documents/{docId}/review.
func (h *ReviewHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		Actor actorPayload `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	doc, err := h.svc.StartReview(r.Context(), chi.URLParam(r, "docId"), reqPayload.Actor.toModel())
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, doc, http.StatusOK)
}

// ReleaseReview handles POST /api/documents/{docId}/release.
func (h *ReviewHandler) ReleaseReview(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		Actor actorPayload `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	docID := chi.URLParam(r, "docId")
	if err := h.svc.ReleaseReview(r.Context(), docID, reqPayload.Actor.toModel()); err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"docId": docID, "status": models.StatusPending}, http.StatusOK)
}

// Approve handles POST /api/documents/{docId}/approve.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		Actor    actorPayload `json:"actor"`
		Comments string       `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	doc, err := h.svc.Approve(r.Context(), chi.URLParam(r, "docId"), reqPayload.Actor.toModel(), reqPayload.Comments)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, doc, http.StatusOK)
}

// Reject handles POST /api/documents/{docId}/reject.
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		Actor  actorPayload `json:"actor"`
		Reason string       `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	docID := chi.URLParam(r, "docId")
	if err := h.svc.Reject(r.Context(), docID, reqPayload.Actor.toModel(), reqPayload.Reason); err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"docId": docID, "status": models.StatusRejected}, http.StatusOK)
}

// ChangeStatus handles POST /api/documents/{docId}/status, the admin
// override edge.
func (h *ReviewHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var reqPayload struct {
		Actor     actorPayload `json:"actor"`
		NewStatus string       `json:"newStatus"`
		Reason    string       `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil {
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	docID := chi.URLParam(r, "docId")
	err := h.svc.ChangeStatus(r.Context(), docID, reqPayload.Actor.toModel(), models.DocumentStatus(reqPayload.NewStatus), reqPayload.Reason)
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"docId": docID, "status": reqPayload.NewStatus}, http.StatusOK)
}

// Reconcile handles GET /api/reconcile.
func (h *ReviewHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Reconcile(r.Context())
	if err != nil {
		h.respondError(w, err.Error(), statusFor(err))
		return
	}
	h.respondJSON(w, map[string]interface{}{"inconsistent": docs, "count": len(docs)}, http.StatusOK)
}

// HealthCheck handles GET /health requests.
func (h *ReviewHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "review-api",
	}
	h.respondJSON(w, resp, http.StatusOK)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrPrecondition):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrLedgerRejection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends JSON response
func (h *ReviewHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
	}
}

// respondError sends error response
func (h *ReviewHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}
	h.respondJSON(w, errorResp, statusCode)
}
