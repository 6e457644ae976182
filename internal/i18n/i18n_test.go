package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitAndTranslate(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// A bare context falls back to the English localizer.
	if got := T(context.Background(), "SessionNotFound"); got != "Session not found." {
		t.Errorf("T(SessionNotFound) = %q", got)
	}
	// Unknown ids degrade to the id itself.
	if got := T(context.Background(), "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q", got)
	}
}

func TestMiddlewareSelectsLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "HistoryCleared")
	})
	handler := Middleware("vi")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Đã xóa lịch sử." {
		t.Errorf("vi translation = %q", got)
	}
}

func TestInitRejectsBadTag(t *testing.T) {
	if err := Init("!!"); err == nil {
		t.Error("expected error for unparsable language tag")
	}
}
