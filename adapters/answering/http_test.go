package answering

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/satriahrh/campus-chat/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_WireFormat(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"9am-9pm"}`))
	}))
	defer srv.Close()

	reply, err := NewHTTPAnswerer(srv.URL, time.Second).Answer(context.Background(), "What are the library hours?", 250)

	require.NoError(t, err)
	assert.Equal(t, "9am-9pm", reply)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{
		"prompt":     "What are the library hours?",
		"max_tokens": float64(250),
	}, gotBody)
}

func TestAnswer_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"reply present", http.StatusOK, `{"response":"Room 4.2"}`, "Room 4.2", false},
		{"reply field missing", http.StatusOK, `{}`, "", false},
		{"extra fields ignored", http.StatusOK, `{"response":"ok","tokens":12}`, "ok", false},
		{"error status with json body", http.StatusInternalServerError, `{"detail":"boom"}`, "", false},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, "", true},
		{"empty body", http.StatusOK, ``, "", true},
		{"null body", http.StatusOK, `null`, "", true},
		{"array body", http.StatusOK, `[]`, "", false},
		{"string body", http.StatusOK, `"hi"`, "", false},
		{"numeric response", http.StatusOK, `{"response":42}`, "42", false},
		{"zero response", http.StatusOK, `{"response":0}`, "", false},
		{"null response", http.StatusOK, `{"response":null}`, "", false},
		{"empty response", http.StatusOK, `{"response":""}`, "", false},
		{"object response", http.StatusOK, `{"response":{"text":"x"}}`, "", false},
		{"escaped text", http.StatusOK, `{"response":"line1\nline2 \u00e9"}`, "line1\nline2 é", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			reply, err := NewHTTPAnswerer(srv.URL, time.Second).Answer(context.Background(), "q", 250)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrReplyUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, reply)
		})
	}
}

func TestAnswer_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPAnswerer(url, time.Second).Answer(context.Background(), "q", 250)
	assert.ErrorIs(t, err, domain.ErrReplyUnavailable)
}

func TestAnswer_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPAnswerer(srv.URL, 0).Answer(ctx, "q", 250)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
