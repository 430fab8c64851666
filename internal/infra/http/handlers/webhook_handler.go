package handlers

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const maxWebhookBody = 1 << 20

type LeadIngester interface {
	Execute(ctx context.Context, source entity.LeadSource, raw []byte) ([]int64, error)
}

type WebhookHandler struct {
	Ingest      LeadIngester
	VerifyToken string
}

type IngestResponse struct {
	Success bool    `json:"success"`
	IDs     []int64 `json:"ids"`
}

func NewWebhookHandler(ingest LeadIngester, verifyToken string) *WebhookHandler {
	return &WebhookHandler{Ingest: ingest, VerifyToken: verifyToken}
}

// VerifyInstagram answers the lead-ads subscription handshake by echoing
// hub.challenge when the verify token matches.
func (h *WebhookHandler) VerifyInstagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.VerifyToken == "" || q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != h.VerifyToken {
		middleware.RecordWebhookRejected(string(entity.SourceInstagram), "verification")
		writeUsecaseError(w, &usecase.VerificationError{Message: "webhook verification failed"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

func (h *WebhookHandler) Instagram(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, entity.SourceInstagram)
}

func (h *WebhookHandler) Google(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, entity.SourceGoogle)
}

func (h *WebhookHandler) Website(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, entity.SourceWebsite)
}

func (h *WebhookHandler) ingest(w http.ResponseWriter, r *http.Request, source entity.LeadSource) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		middleware.RecordWebhookRejected(string(source), "body")
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
		return
	}

	ids, err := h.Ingest.Execute(r.Context(), source, raw)
	if len(ids) > 0 {
		middleware.RecordLeadsIngested(string(source), len(ids))
	}
	if err != nil {
		if usecase.IsValidationError(err) {
			middleware.RecordWebhookRejected(string(source), "validation")
			zap.L().Info("webhook rejected", zap.String("source", string(source)), zap.Error(err))
		}
		writeUsecaseError(w, err, zap.String("source", string(source)), zap.Int64s("stored_ids", ids))
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{Success: true, IDs: ids})
}
