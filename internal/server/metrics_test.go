package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_HandleWithMetrics(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}

	t.Run("should observe status and size per route", func(t *testing.T) {
		m := NewMetrics("test", nil)
		wrapped := m.HandleWithMetricsCustomTimer("/tea", handler, func(time.Time) time.Duration { return time.Second })
		rr := httptest.NewRecorder()

		wrapped(rr, httptest.NewRequest("GET", "/tea?cups=2", nil))

		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
		assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPResponseSize))
	})

	t.Run("should still serve without metrics", func(t *testing.T) {
		var m *Metrics
		rr := httptest.NewRecorder()

		m.HandleWithMetrics("/tea", handler)(rr, httptest.NewRequest("GET", "/tea", nil))
		m.RecordError("load")

		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Equal(t, "short and stout", rr.Body.String())
	})
}
