package advisory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhph/diem10tin/internal/model"
)

func testQuestion() model.Question {
	return model.Question{
		ID:     "q1",
		Type:   model.TypeSingleChoice,
		Topic:  "python",
		Prompt: "What does len() return?",
		Options: []model.Option{
			{ID: "a", Text: "The length"},
			{ID: "b", Text: "The type"},
			{ID: "c", Text: "The value"},
			{ID: "d", Text: "The address"},
		},
		CorrectOption: "a",
	}
}

func testConfig() Config {
	return Config{
		APIKey:   "test-key",
		Model:    "model-b",
		Fallback: []string{"model-a", "model-b", "model-c"},
	}
}

func TestExplainSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "because len counts elements"})
	svc := NewService(mock, testConfig(), 0)

	text, err := svc.Explain(context.Background(), testQuestion())
	require.NoError(t, err)
	assert.Equal(t, "because len counts elements", text)

	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "model-b", mock.Calls[0].Model, "first attempt must use the selected model")
	assert.Contains(t, mock.Calls[0].Prompt, "What does len() return?")
	assert.Contains(t, mock.Calls[0].Prompt, "Đáp án đúng là: a")
}

func TestExplainFallsBackOnFailure(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: errors.New("model overloaded")},
		MockResponse{Text: "explanation from the fallback"},
	)
	svc := NewService(mock, testConfig(), 0)

	text, err := svc.Explain(context.Background(), testQuestion())
	require.NoError(t, err)
	assert.Equal(t, "explanation from the fallback", text)

	// Rotation: selected model first, then the rest of the order, wrapping.
	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "model-b", mock.Calls[0].Model)
	assert.Equal(t, "model-c", mock.Calls[1].Model)
}

func TestExplainAuthErrorShortCircuits(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &AuthError{Model: "model-b", Err: errors.New("401")}},
		MockResponse{Text: "never reached"},
	)
	svc := NewService(mock, testConfig(), 0)

	_, err := svc.Explain(context.Background(), testQuestion())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "model-b", authErr.Model)
	assert.Equal(t, 1, mock.CallCount(), "auth failure must not try further models")
}

func TestExplainExhaustsAllModels(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: errors.New("fail 1")},
		MockResponse{Err: errors.New("fail 2")},
		MockResponse{Err: errors.New("fail 3")},
	)
	svc := NewService(mock, testConfig(), 0)

	_, err := svc.Explain(context.Background(), testQuestion())
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, []string{"model-b", "model-c", "model-a"}, svcErr.Models)
	assert.EqualError(t, svcErr.Err, "fail 3")
	assert.Equal(t, 3, mock.CallCount())
}

func TestSelectedModelOutsideFallbackOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Model = "custom-model"
	mock := NewMockProvider(MockResponse{Text: "ok"})
	svc := NewService(mock, cfg, 0)

	_, err := svc.Explain(context.Background(), testQuestion())
	require.NoError(t, err)
	// Unknown selection falls back to the configured order as-is.
	assert.Equal(t, "model-a", mock.Calls[0].Model)
}

func TestNotConfigured(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		svc := NewService(nil, testConfig(), 0)
		_, err := svc.Explain(context.Background(), testQuestion())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
	t.Run("empty api key", func(t *testing.T) {
		cfg := testConfig()
		cfg.APIKey = ""
		mock := NewMockProvider(MockResponse{Text: "never reached"})
		svc := NewService(mock, cfg, 0)
		_, err := svc.Explain(context.Background(), testQuestion())
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Zero(t, mock.CallCount())
	})
}

func TestStudyPlanPromptNamesTopics(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "week plan"})
	svc := NewService(mock, testConfig(), 0)

	plan, err := svc.StudyPlan(context.Background(), []string{"networks", "databases"})
	require.NoError(t, err)
	assert.Equal(t, "week plan", plan)
	assert.Contains(t, mock.Calls[0].Prompt, "networks, databases")
}

func TestDefaultsApplied(t *testing.T) {
	svc := NewService(NewMockProvider(), Config{APIKey: "k"}, 0)
	assert.Equal(t, DefaultModel, svc.config.Model)
	assert.Equal(t, DefaultFallback, svc.config.Fallback)
}

func TestExplainPromptTrueFalseGroup(t *testing.T) {
	q := model.Question{
		ID:     "q2",
		Type:   model.TypeTrueFalseGroup,
		Topic:  "networks",
		Prompt: "Evaluate each statement.",
		SubQuestions: []model.SubQuestion{
			{ID: "s1", Text: "IP is connectionless", Correct: true},
			{ID: "s2", Text: "TCP is connectionless", Correct: false},
			{ID: "s3", Text: "UDP is reliable", Correct: false},
			{ID: "s4", Text: "DNS maps names", Correct: true},
		},
	}
	prompt := explainPrompt(q)
	assert.Contains(t, prompt, "IP is connectionless (Đúng)")
	assert.Contains(t, prompt, "TCP is connectionless (Sai)")
}
