package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	appI18n "github.com/minhph/diem10tin/internal/i18n"

	"github.com/minhph/diem10tin/internal/advisory"
	"github.com/minhph/diem10tin/internal/exam"
	"github.com/minhph/diem10tin/internal/model"
	"github.com/minhph/diem10tin/internal/store"
)

// ProviderKind selects which advisory backend the gateway builds.
type ProviderKind string

const (
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
)

// AdvisoryGateway builds advisory services on demand from the persisted
// settings. The API key and model live in the settings table so the user can
// change them at runtime; the gateway rebuilds the provider only when the
// key actually changes.
type AdvisoryGateway struct {
	store    *store.Store
	kind     ProviderKind
	baseURL  string
	fallback []string
	timeout  time.Duration

	mu       sync.Mutex
	cachedBy string // API key the cached provider was built with
	provider advisory.Provider
}

// NewAdvisoryGateway creates a gateway. kind defaults to Gemini.
func NewAdvisoryGateway(s *store.Store, kind ProviderKind, baseURL string, fallback []string, timeout time.Duration) *AdvisoryGateway {
	if kind == "" {
		kind = ProviderGemini
	}
	return &AdvisoryGateway{
		store:    s,
		kind:     kind,
		baseURL:  baseURL,
		fallback: fallback,
		timeout:  timeout,
	}
}

// service assembles a Service from the current settings. Returns
// ErrNotConfigured when no API key has been saved yet.
func (g *AdvisoryGateway) service(ctx context.Context) (*advisory.Service, error) {
	apiKey, err := g.store.Setting(store.SettingAPIKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, advisory.ErrNotConfigured
	}
	modelName, err := g.store.Setting(store.SettingModel)
	if err != nil {
		return nil, err
	}

	provider, err := g.providerFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	cfg := advisory.Config{
		APIKey:   apiKey,
		Model:    modelName,
		Fallback: g.fallback,
	}
	return advisory.NewService(provider, cfg, g.timeout), nil
}

func (g *AdvisoryGateway) providerFor(ctx context.Context, apiKey string) (advisory.Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.provider != nil && g.cachedBy == apiKey {
		return g.provider, nil
	}

	var (
		p   advisory.Provider
		err error
	)
	switch g.kind {
	case ProviderOpenAI:
		p, err = advisory.NewOpenAIProvider(g.baseURL, apiKey)
	default:
		p, err = advisory.NewGeminiProvider(ctx, apiKey)
	}
	if err != nil {
		return nil, err
	}
	g.provider = p
	g.cachedBy = apiKey
	return p, nil
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string          `json:"question_id"`
		Question   *model.Question `json:"question"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	// Accept either a bank question ID or an inline question snapshot, so
	// history entries with re-suffixed IDs can still be explained.
	var q model.Question
	switch {
	case req.Question != nil:
		q = *req.Question
	case req.QuestionID != "":
		var ok bool
		q, ok = h.bank.Question(req.QuestionID)
		if !ok {
			respondError(w, r, http.StatusNotFound, "QuestionNotFound")
			return
		}
	default:
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	svc, err := h.advisory.service(r.Context())
	if err != nil {
		status, msgID := advisoryStatus(err)
		slog.Warn("advisory unavailable", "error", err)
		respondError(w, r, status, msgID)
		return
	}
	text, err := svc.Explain(r.Context(), q)
	if err != nil {
		status, msgID := advisoryStatus(err)
		slog.Warn("explain failed", "question", q.ID, "error", err)
		respondError(w, r, status, msgID)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"explanation": text})
}

func (h *Handler) handleStudyPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topics []string `json:"topics"`
	}
	// An empty body means "use my weak topics".
	if err := decode(r, &req); err != nil && err != io.EOF {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	topics := req.Topics
	if len(topics) == 0 {
		results, err := h.store.ListResults()
		if err != nil {
			slog.Error("list results for study plan", "error", err)
			respondError(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
		topics = exam.WeakTopics(results)
	}
	if len(topics) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{
			"plan": appI18n.T(r.Context(), "NoWeakTopics"),
		})
		return
	}

	svc, err := h.advisory.service(r.Context())
	if err != nil {
		status, msgID := advisoryStatus(err)
		slog.Warn("advisory unavailable", "error", err)
		respondError(w, r, status, msgID)
		return
	}
	plan, err := svc.StudyPlan(r.Context(), topics)
	if err != nil {
		slog.Warn("study plan failed", "error", err)
		status, _ := advisoryStatus(err)
		respondError(w, r, status, "StudyPlanUnavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"plan": plan, "topics": topics})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	apiKey, err := h.store.Setting(store.SettingAPIKey)
	if err != nil {
		slog.Error("read settings", "error", err)
		respondError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	modelName, err := h.store.Setting(store.SettingModel)
	if err != nil {
		slog.Error("read settings", "error", err)
		respondError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if modelName == "" {
		modelName = advisory.DefaultModel
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"model":       modelName,
		"api_key_set": apiKey != "",
		"api_key":     maskKey(apiKey),
	})
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey *string `json:"api_key"`
		Model  *string `json:"model"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	if req.APIKey != nil {
		key := strings.TrimSpace(*req.APIKey)
		if err := h.store.SetSetting(store.SettingAPIKey, key); err != nil {
			slog.Error("save api key", "error", err)
			respondError(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
	}
	if req.Model != nil {
		if err := h.store.SetSetting(store.SettingModel, strings.TrimSpace(*req.Model)); err != nil {
			slog.Error("save model", "error", err)
			respondError(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": appI18n.T(r.Context(), "SettingsSaved"),
	})
}

// maskKey hides all but the last four characters of a credential.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
