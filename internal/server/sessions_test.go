package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Identify(t *testing.T) {
	store := NewSessionStore(time.Hour)

	t.Run("should issue a cookie for new callers", func(t *testing.T) {
		rr := httptest.NewRecorder()

		id := store.Identify(rr, httptest.NewRequest("GET", "/", nil))

		cookie := sessionCookie(t, rr)
		assert.Equal(t, id, cookie.Value)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	})

	t.Run("should reuse a valid cookie", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
		rr := httptest.NewRecorder()

		assert.Equal(t, id, store.Identify(rr, req))
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("should replace a forged cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
		rr := httptest.NewRecorder()

		id := store.Identify(rr, req)

		assert.NotEqual(t, "../../etc", id)
		require.Len(t, rr.Result().Cookies(), 1)
	})
}

func TestSessionStore_Expiry(t *testing.T) {
	originalTimeNow := timeNow
	defer func() { timeNow = originalTimeNow }()

	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }

	store := NewSessionStore(30 * time.Minute)
	store.Save("a", selection.Selection{BaseType: "CW"})
	assert.Equal(t, "CW", store.Get("a").BaseType)

	now = now.Add(31 * time.Minute)
	store.Save("b", selection.Selection{BaseType: "CD"})

	assert.Equal(t, selection.Selection{}, store.Get("a"))
	assert.Equal(t, 1, store.Prune())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "CD", store.Get("b").BaseType)
}
