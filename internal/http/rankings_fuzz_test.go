package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func FuzzDecodeTitleKey(f *testing.F) {
	seeds := [][2]string{
		{"movie", "603"},
		{"series", "1396"},
		{"vhs", "603"},
		{"movie", "abc"},
		{"movie", "-1"},
		{"", ""},
	}
	for _, seed := range seeds {
		f.Add(seed[0], seed[1])
	}

	f.Fuzz(func(t *testing.T, mediaType, tmdbID string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("mediaType", mediaType)
		rctx.URLParams.Add("tmdbId", tmdbID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		key, err := decodeTitleKey(req)
		if err != nil {
			return
		}
		if key.TmdbID <= 0 {
			t.Fatalf("accepted non-positive tmdbId %d", key.TmdbID)
		}
		if key.MediaType != "movie" && key.MediaType != "series" {
			t.Fatalf("accepted media type %q", key.MediaType)
		}
	})
}
