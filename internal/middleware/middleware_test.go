package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("Got context id %q header %q, expected the same generated id", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDPropagatedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	h := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Got header %q, expected abc-123", got)
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"abc-123"`) != 2 {
		t.Errorf("Got log %s, expected the handler and completion lines to carry the request id", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("Got log %s, expected the response status", out)
	}
}
