// metadata-mock serves canned title metadata for local development so the
// server can run without access to the real lookup service.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type titlePayload struct {
	Title       string   `json:"title,omitempty"`
	Name        string   `json:"name,omitempty"`
	PosterPath  *string  `json:"posterPath,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"`
}

func strPtr(s string) *string { return &s }

var titles = map[int64]titlePayload{
	603: {
		Title:       "The Matrix",
		PosterPath:  strPtr("/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"),
		Genres:      []string{"Action", "Science Fiction"},
		ReleaseDate: strPtr("1999-03-30"),
	},
	1396: {
		Name:        "Breaking Bad",
		PosterPath:  strPtr("/ztkUQFLlC19CCMYHW9o1zWhJRNq.jpg"),
		Genres:      []string{"Drama", "Crime"},
		ReleaseDate: strPtr("2008-01-20"),
	},
	27205: {
		Title:       "Inception",
		PosterPath:  strPtr("/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg"),
		Genres:      []string{"Action", "Science Fiction", "Adventure"},
		ReleaseDate: strPtr("2010-07-15"),
	},
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/titles/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") == "" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}

		rawID := strings.TrimPrefix(r.URL.Path, "/titles/")
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			http.Error(w, "invalid title id", http.StatusBadRequest)
			return
		}

		payload, ok := titles[id]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("encode response: %v", err)
		}
	})

	log.Printf("metadata-mock listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("metadata-mock: %v", err)
	}
}
