package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"
)

func BenchmarkHandlePlacement(b *testing.B) {
	srv := buildTestServer(b)

	rec := doJSON(srv, http.MethodPost, "/rankings", "bench-user", map[string]interface{}{
		"tmdbId": 603, "mediaType": "movie", "sentiment": "liked",
	})
	if rec.Code != http.StatusCreated {
		b.Fatalf("create draft: status %d", rec.Code)
	}
	var created rankingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		b.Fatalf("decode draft: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := doJSON(srv, http.MethodPut, "/rankings/"+created.ID+"/placement", "bench-user", map[string]interface{}{
			"desiredRank": 0,
		})
		if rec.Code != http.StatusOK {
			b.Fatalf("placement status %d: %s", rec.Code, rec.Body.String())
		}
	}
}
