package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGenerate(t *testing.T) {
	t.Run("returns the agent summary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/report", r.URL.Path)

			var payload Payload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "REJECT", payload.Decision)

			_ = json.NewEncoder(w).Encode(map[string]string{"report_summary": "high debt load"})
		}))
		defer srv.Close()

		client := NewClient(true, srv.URL, time.Second)
		summary, err := client.Generate(context.Background(), Payload{Decision: "REJECT", RiskScore: 0.8})
		require.NoError(t, err)
		assert.Equal(t, "high debt load", summary)
	})

	t.Run("non-200 surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(true, srv.URL, time.Second)
		_, err := client.Generate(context.Background(), Payload{})
		assert.Error(t, err)
	})

	t.Run("disabled agent yields nil client", func(t *testing.T) {
		assert.Nil(t, NewClient(false, "http://agent:9000", time.Second))
	})
}
