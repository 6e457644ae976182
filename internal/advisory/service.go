package advisory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/minhph/diem10tin/internal/model"
)

// Service exposes the two advisory operations backed by a Provider and the
// model fallback policy.
type Service struct {
	provider Provider
	config   Config

	// timeout bounds one model attempt; zero means no deadline.
	timeout time.Duration
}

// NewService creates a Service. The provider may be nil when the advisory
// feature is unconfigured; every call then returns ErrNotConfigured.
func NewService(provider Provider, cfg Config, timeout time.Duration) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if len(cfg.Fallback) == 0 {
		cfg.Fallback = DefaultFallback
	}
	return &Service{provider: provider, config: cfg, timeout: timeout}
}

// Explain asks the model for a natural-language explanation of a question.
func (s *Service) Explain(ctx context.Context, q model.Question) (string, error) {
	return s.generate(ctx, explainPrompt(q))
}

// StudyPlan asks the model for a one-week study plan over the weak topics.
func (s *Service) StudyPlan(ctx context.Context, weakTopics []string) (string, error) {
	return s.generate(ctx, studyPlanPrompt(weakTopics))
}

// generate runs one logical operation under the fallback policy: try each
// candidate model in preference order starting from the selected one; stop
// at the first success; abort immediately on an auth-class failure; wrap
// the last error once every candidate is exhausted.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.provider == nil || s.config.APIKey == "" {
		return "", ErrNotConfigured
	}

	candidates := s.candidates()
	var lastErr error

	for _, m := range candidates {
		text, err := s.tryModel(ctx, m, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var authErr *AuthError
		if errors.As(err, &authErr) {
			return "", authErr
		}
		slog.Warn("advisory model failed, trying next", "model", m, "error", err)
	}

	return "", &ServiceError{Models: candidates, Err: lastErr}
}

func (s *Service) tryModel(ctx context.Context, model, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.GenerateText(ctx, model, prompt)
}

// candidates returns the fallback order rotated to start at the selected
// model; a selection outside the list falls back to the list as-is.
func (s *Service) candidates() []string {
	order := s.config.Fallback
	start := 0
	for i, m := range order {
		if m == s.config.Model {
			start = i
			break
		}
	}
	out := make([]string, 0, len(order))
	out = append(out, order[start:]...)
	out = append(out, order[:start]...)
	return out
}
