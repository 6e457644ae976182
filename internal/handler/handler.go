// Package handler exposes the exam-prep service as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhph/diem10tin/internal/advisory"
	"github.com/minhph/diem10tin/internal/bank"
	"github.com/minhph/diem10tin/internal/exam"
	appI18n "github.com/minhph/diem10tin/internal/i18n"
	"github.com/minhph/diem10tin/internal/model"
	"github.com/minhph/diem10tin/internal/store"
)

// Config holds runtime parameters set via CLI flags.
type Config struct {
	QuizQuestions int // questions per practice quiz
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	bank     *bank.Bank
	sessions *exam.Manager
	advisory *AdvisoryGateway
	config   Config
}

// New creates a new Handler.
func New(s *store.Store, b *bank.Bank, m *exam.Manager, adv *AdvisoryGateway, cfg Config) *Handler {
	if cfg.QuizQuestions <= 0 {
		cfg.QuizQuestions = 20
	}
	return &Handler{store: s, bank: b, sessions: m, advisory: adv, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/topics", h.handleTopics)
	r.Get("/api/exams", h.handleExamList)

	r.Post("/api/quiz/start", h.handleStartQuiz)
	r.Get("/api/quiz/{sessionID}", h.handleQuizState)
	r.Post("/api/quiz/{sessionID}/answer", h.handleQuizAnswer)
	r.Post("/api/quiz/{sessionID}/flag", h.handleQuizFlag)
	r.Post("/api/quiz/{sessionID}/position", h.handleQuizPosition)
	r.Post("/api/quiz/{sessionID}/submit", h.handleQuizSubmit)
	r.Delete("/api/quiz/{sessionID}", h.handleQuizCancel)

	r.Post("/api/exam/start", h.handleStartExam)
	r.Get("/api/exam/{sessionID}", h.handleExamState)
	r.Post("/api/exam/{sessionID}/part1", h.handleExamPart1)
	r.Post("/api/exam/{sessionID}/truefalse", h.handleExamTrueFalse)
	r.Post("/api/exam/{sessionID}/part3-choice", h.handleExamPart3Choice)
	r.Post("/api/exam/{sessionID}/submit", h.handleExamSubmit)

	r.Get("/api/history", h.handleHistory)
	r.Get("/api/history/attempts", h.handleAttemptHistory)
	r.Delete("/api/history", h.handleClearHistory)
	r.Get("/api/stats", h.handleStats)

	r.Post("/api/advisory/explain", h.handleExplain)
	r.Post("/api/advisory/study-plan", h.handleStudyPlan)

	r.Get("/api/settings", h.handleGetSettings)
	r.Put("/api/settings", h.handlePutSettings)
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"topics": h.bank.Topics()})
}

func (h *Handler) handleExamList(w http.ResponseWriter, r *http.Request) {
	type examInfo struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	infos := []examInfo{}
	for _, e := range h.bank.Exams() {
		infos = append(infos, examInfo{ID: e.ID, Name: e.Name})
	}
	respondJSON(w, http.StatusOK, map[string]any{"exams": infos})
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	count := req.Count
	if count <= 0 {
		count = h.config.QuizQuestions
	}

	var questions []model.Question
	if req.Topic != "" {
		questions = h.bank.RandomByTopic(req.Topic, count)
	} else {
		questions = h.bank.RandomExam(count)
	}

	s, err := h.sessions.StartQuiz(questions)
	if err != nil {
		slog.Warn("start quiz refused", "topic", req.Topic, "count", count, "error", err)
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":        s.ID(),
		"remaining_seconds": s.Remaining(),
		"questions":         s.Questions(),
	})
}

func (h *Handler) handleQuizState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Quiz(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Quiz(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		QuestionID string       `json:"question_id"`
		Answer     model.Answer `json:"answer"`
	}
	if err := decode(r, &req); err != nil || req.QuestionID == "" {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.SetAnswer(req.QuestionID, req.Answer)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleQuizFlag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Quiz(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		QuestionID string `json:"question_id"`
	}
	if err := decode(r, &req); err != nil || req.QuestionID == "" {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.ToggleFlag(req.QuestionID)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleQuizPosition(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Quiz(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.SetCurrent(req.Index)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.SubmitQuiz(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleQuizCancel(w http.ResponseWriter, r *http.Request) {
	h.sessions.CancelQuiz(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExamID string `json:"exam_id"`
	}
	if err := decode(r, &req); err != nil || req.ExamID == "" {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	e, ok := h.bank.Exam(req.ExamID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "ExamNotFound")
		return
	}
	s, err := h.sessions.StartExam(e)
	if err != nil {
		slog.Warn("start exam refused", "exam", req.ExamID, "error", err)
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":        s.ID(),
		"remaining_seconds": s.Remaining(),
		"exam":              s.Exam(),
	})
}

func (h *Handler) handleExamState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Exam(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleExamPart1(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Exam(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		Number int    `json:"number"`
		Option string `json:"option"`
	}
	if err := decode(r, &req); err != nil || req.Number < 1 || req.Option == "" {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.SetPart1Answer(req.Number, req.Option)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleExamTrueFalse(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Exam(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		Part     int    `json:"part"`
		Number   int    `json:"number"`
		OptionID string `json:"option_id"`
		Value    bool   `json:"value"`
	}
	if err := decode(r, &req); err != nil || (req.Part != 2 && req.Part != 3) || req.OptionID == "" {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.SetTrueFalse(req.Part, req.Number, req.OptionID, req.Value)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleExamPart3Choice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Exam(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	var req struct {
		Choice model.Part3Choice `json:"choice"`
	}
	if err := decode(r, &req); err != nil ||
		(req.Choice != model.Part3Option1 && req.Choice != model.Part3Option2) {
		respondError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	s.ChoosePart3(req.Choice)
	respondJSON(w, http.StatusOK, s.State())
}

func (h *Handler) handleExamSubmit(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.sessions.SubmitExam(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "SessionNotFound")
		return
	}
	respondJSON(w, http.StatusOK, attempt)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		// History is best-effort: degrade to empty, never fail the client.
		slog.Error("list results", "error", err)
		results = []model.ExamResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleAttemptHistory(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.store.ListAttempts()
	if err != nil {
		slog.Error("list attempts", "error", err)
		attempts = []model.ExamAttempt{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearHistory(); err != nil {
		slog.Error("clear history", "error", err)
		respondError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": appI18n.T(r.Context(), "HistoryCleared")})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary()
	if err != nil {
		slog.Error("stats summary", "error", err)
		respondError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	results, err := h.store.ListResults()
	if err != nil {
		slog.Error("list results for stats", "error", err)
		results = []model.ExamResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summary":     summary,
		"topics":      exam.TopicStats(results),
		"weak_topics": exam.WeakTopics(results),
	})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a localized error message under a stable code.
func respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, map[string]any{
		"error":   msgID,
		"message": appI18n.T(r.Context(), msgID),
	})
}

// advisoryStatus maps advisory failures onto HTTP statuses.
func advisoryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, advisory.ErrNotConfigured):
		return http.StatusPreconditionFailed, "AdvisoryNotConfigured"
	default:
		return http.StatusBadGateway, "ExplanationUnavailable"
	}
}
