package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/RichardoC/caonline/internal/db"
	"github.com/RichardoC/caonline/internal/llm"
	"github.com/RichardoC/caonline/internal/metrics"
	"github.com/RichardoC/caonline/internal/models"
	"github.com/RichardoC/caonline/internal/prompt"
)

// Every relay response carries a reply; failures after method checking use
// status 200 so clients handle them on the same path as real answers.
const (
	ReplyMethodNotAllowed = "Method not allowed"
	ReplyNoMessages       = "⚠️ No messages received. Please try again."
	ReplyMissingKey       = "⚠️ Server configuration issue: API key missing."
	ReplyRateLimited      = "⚠️ Rate limit reached. Please wait a few minutes and try again."
	ReplyUnavailable      = "⚠️ AI service temporarily unavailable. Try again shortly."
	ReplyNoContent        = "⚠️ No reply from AI."
	ReplyUnexpected       = "⚠️ Unexpected server error. Please try again."
)

const (
	OutcomeOK               = "ok"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeNoMessages       = "no_messages"
	OutcomeMissingKey       = "config_error"
	OutcomeRateLimited      = "rate_limited"
	OutcomeProviderError    = "provider_error"
	OutcomeUnexpected       = "unexpected_error"
)

const (
	maxBodyBytes      = 1 << 20
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type Completer interface {
	Complete(ctx context.Context, msgs []models.Message) (string, error)
	Model() string
}

type AuditLog interface {
	RecordCompletion(ctx context.Context, entry *db.AuditEntry) error
	RecentCompletions(ctx context.Context, limit int) ([]db.AuditEntry, error)
	CountByOutcome(ctx context.Context) (map[string]int, error)
}

type Handler struct {
	llm     Completer
	audit   AuditLog
	metrics *metrics.Relay
	logger  *zap.Logger
}

// NewHandler wires the relay. audit and m may be nil.
func NewHandler(llmService Completer, audit AuditLog, m *metrics.Relay, logger *zap.Logger) *Handler {
	return &Handler{
		llm:     llmService,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

type CompletionRequest struct {
	Messages json.RawMessage `json:"messages"`
}

type CompletionResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		h.writeReply(w, http.StatusMethodNotAllowed, ReplyMethodNotAllowed)
		h.observe(r.Context(), OutcomeMethodNotAllowed, 0, http.StatusMethodNotAllowed, start)
		return
	}

	var (
		reply   string
		outcome = OutcomeUnexpected
		count   int
	)
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Unexpected relay failure",
				zap.Any("panic", rec),
				zap.Stack("stack"))
			reply, outcome = ReplyUnexpected, OutcomeUnexpected
		}
		h.writeReply(w, http.StatusOK, reply)
		h.observe(r.Context(), outcome, count, http.StatusOK, start)
	}()

	reply, outcome, count = h.complete(r)
}

func (h *Handler) complete(r *http.Request) (reply, outcome string, count int) {
	msgs, ok := decodeMessages(io.LimitReader(r.Body, maxBodyBytes))
	if !ok {
		return ReplyNoMessages, OutcomeNoMessages, 0
	}

	if msgs[0].Role != models.RoleSystem {
		msgs = append([]models.Message{prompt.RelayMessage()}, msgs...)
	}
	count = len(msgs)

	content, err := h.llm.Complete(r.Context(), msgs)
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		h.logger.Error("OPENAI_API_KEY is missing")
		return ReplyMissingKey, OutcomeMissingKey, count
	case errors.Is(err, llm.ErrRateLimited):
		h.logger.Warn("Provider rate limit reached", zap.Error(err))
		return ReplyRateLimited, OutcomeRateLimited, count
	case err != nil:
		h.logger.Error("Provider request failed", zap.Error(err))
		return ReplyUnavailable, OutcomeProviderError, count
	}

	if content == "" {
		content = ReplyNoContent
	}
	return content, OutcomeOK, count
}

// decodeMessages reports false when the body is unreadable or messages is
// missing, not a list, or empty.
func decodeMessages(body io.Reader) ([]models.Message, bool) {
	var req CompletionRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, false
	}
	if len(req.Messages) == 0 {
		return nil, false
	}
	var msgs []models.Message
	if err := json.Unmarshal(req.Messages, &msgs); err != nil {
		return nil, false
	}
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs, true
}

func (h *Handler) writeReply(w http.ResponseWriter, status int, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(CompletionResponse{Reply: reply}); err != nil {
		h.logger.Error("Failed to encode reply", zap.Error(err))
	}
}

func (h *Handler) observe(ctx context.Context, outcome string, count, status int, start time.Time) {
	elapsed := time.Since(start)
	h.metrics.Observe(outcome, elapsed)

	h.logger.Info("Relay request handled",
		zap.String("outcome", outcome),
		zap.Int("messages", count),
		zap.Duration("duration", elapsed))

	if h.audit == nil {
		return
	}
	entry := &db.AuditEntry{
		Outcome:      outcome,
		Model:        h.llm.Model(),
		MessageCount: count,
		Status:       status,
		DurationMS:   elapsed.Milliseconds(),
	}
	if err := h.audit.RecordCompletion(context.WithoutCancel(ctx), entry); err != nil {
		h.logger.Warn("Failed to record relay audit entry", zap.Error(err))
	}
}

func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.audit == nil {
		http.Error(w, "Audit log disabled", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("summary") == "1" {
		h.handleAuditSummary(w, r)
		return
	}

	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.audit.RecentCompletions(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read audit log", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.logger.Error("Failed to encode audit entries", zap.Error(err))
	}
}

// handleAuditSummary reports totals per outcome instead of individual rows.
func (h *Handler) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.audit.CountByOutcome(r.Context())
	if err != nil {
		h.logger.Error("Failed to summarize audit log", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(counts); err != nil {
		h.logger.Error("Failed to encode audit summary", zap.Error(err))
	}
}
