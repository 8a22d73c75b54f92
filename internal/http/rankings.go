package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reeltier/reeltier/internal/domain"
	"github.com/reeltier/reeltier/internal/metadata"
	"github.com/reeltier/reeltier/internal/ranklist"
	"github.com/reeltier/reeltier/internal/repository"
	"github.com/reeltier/reeltier/internal/scoring"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type draftCreateRequest struct {
	TmdbID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"`
	Sentiment string `json:"sentiment"`
	Title     string `json:"title"`
}

type placementRequest struct {
	DesiredRank int     `json:"desiredRank"`
	Sentiment   *string `json:"sentiment"`
}

type rankingResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	TmdbID           int64     `json:"tmdbId"`
	MediaType        string    `json:"mediaType"`
	PosterPath       *string   `json:"posterPath,omitempty"`
	Sentiment        string    `json:"sentiment"`
	Score            float64   `json:"score"`
	OriginalScore    float64   `json:"originalScore"`
	ComparisonsCount int       `json:"comparisonsCount"`
	RatingState      string    `json:"ratingState"`
	Timestamp        time.Time `json:"timestamp"`
}

type scoreDeltaResponse struct {
	ItemID   string  `json:"itemId"`
	OldScore float64 `json:"oldScore"`
	NewScore float64 `json:"newScore"`
}

type mutationResponse struct {
	Item    *rankingResponse     `json:"item,omitempty"`
	Deltas  []scoreDeltaResponse `json:"deltas"`
	Items   []rankingResponse    `json:"items"`
	Skipped int                  `json:"skipped,omitempty"`
}

type rankingListResponse struct {
	Items []rankingResponse `json:"items"`
}

type communityRatingResponse struct {
	Rating      float64   `json:"rating"`
	Average     float64   `json:"average"`
	Count       int64     `json:"count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type statsResponse struct {
	GlobalMu     float64   `json:"globalMu"`
	PseudoCount  float64   `json:"c"`
	TotalRatings int64     `json:"totalRatings"`
	TotalMovies  int64     `json:"totalMovies"`
	ComputedAt   time.Time `json:"computedAt"`
}

type rebuildResponse struct {
	Rebuilt int64 `json:"rebuilt"`
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req draftCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.TmdbID <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "tmdbId must be positive")
		return
	}
	mediaType, err := domain.ParseMediaType(req.MediaType)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "mediaType must be movie or series")
		return
	}
	sentiment, err := domain.ParseSentiment(req.Sentiment)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "sentiment must be liked, fine, or disliked")
		return
	}

	title := strings.TrimSpace(req.Title)
	var posterPath *string
	details := s.lookupMetadata(r.Context(), req.TmdbID, mediaType)
	if details != nil {
		if details.Title != "" {
			title = details.Title
		}
		posterPath = details.PosterPath
	}
	if title == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required when metadata lookup has no result")
		return
	}

	item, err := s.repo.Items.Insert(r.Context(), domain.RankedItem{
		ID:         uuid.NewString(),
		UserID:     userID,
		TmdbID:     req.TmdbID,
		MediaType:  mediaType,
		Title:      title,
		PosterPath: posterPath,
		Sentiment:  sentiment,
		State:      domain.StateInitialSentiment,
	})
	if err != nil {
		s.logger.Printf("create draft error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ranking")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/rankings/%s", item.ID))
	s.respondJSON(w, http.StatusCreated, toRankingResponse(item))
}

// lookupMetadata fetches display fields for a title. Lookup failures degrade
// to the caller-supplied title; they never fail the request.
func (s *Server) lookupMetadata(ctx context.Context, tmdbID int64, mediaType domain.MediaType) *domain.MovieDetails {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.MetadataTimeoutSecs)*time.Second)
	defer cancel()

	details, err := s.meta.Lookup(ctx, tmdbID, mediaType)
	if err != nil {
		if !errors.Is(err, metadata.ErrNotFound) {
			s.logger.Printf("metadata lookup failed for %d/%s: %v", tmdbID, mediaType, err)
		}
		return nil
	}
	return details
}

func (s *Server) handleRecordComparison(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	item, ok := s.ownedItem(w, r, userID)
	if !ok {
		return
	}
	if !item.State.CanTransition(domain.StateComparing) {
		s.respondError(w, http.StatusConflict, "CONFLICT", "Ranking is already finalized")
		return
	}

	updated, err := s.repo.Items.RecordComparison(r.Context(), item.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Ranking is already finalized")
			return
		}
		s.logger.Printf("record comparison error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record comparison")
		return
	}
	s.respondJSON(w, http.StatusOK, toRankingResponse(updated))
}

func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req placementRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.DesiredRank < 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "desiredRank must be non-negative")
		return
	}

	release, err := s.guard.Acquire(userID)
	if err != nil {
		s.respondError(w, http.StatusConflict, "RECALC_IN_PROGRESS", "Another list mutation is in progress")
		return
	}
	defer release()

	item, ok := s.ownedItem(w, r, userID)
	if !ok {
		return
	}

	sentiment := item.Sentiment
	if req.Sentiment != nil {
		sentiment, err = domain.ParseSentiment(*req.Sentiment)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "sentiment must be liked, fine, or disliked")
			return
		}
	}

	target := domain.StateFinalInsertion
	if item.State.Final() {
		target = domain.StateScoreUpdate
	}
	newState, err := item.State.Transition(target)
	if err != nil {
		s.respondError(w, http.StatusConflict, "CONFLICT", err.Error())
		return
	}

	// A score already in the aggregate must be swapped out, not added on top.
	// That covers both re-ranking this item and a stray second terminal item
	// for the same title.
	var previous *float64
	if item.State.Final() {
		prev := item.Score
		previous = &prev
	} else if other, ferr := s.repo.Items.FindTerminalByTitle(r.Context(), userID, item.TitleKey()); ferr == nil {
		prev := other.Score
		previous = &prev
	} else if !errors.Is(ferr, repository.ErrNotFound) {
		s.logger.Printf("find terminal by title error: %v", ferr)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place ranking")
		return
	}

	stored, err := s.repo.Items.ListByUser(r.Context(), userID, item.MediaType)
	if err != nil {
		s.logger.Printf("list rankings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place ranking")
		return
	}

	list := ranklist.NewList(stored)
	_, removalDeltas := list.Delete(item.ID)

	moved := item
	moved.Sentiment = sentiment
	moved.State = newState
	insertDeltas, err := list.InsertAt(moved, req.DesiredRank)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	placed, _ := list.Get(item.ID)
	neighborDeltas := dropItem(append(removalDeltas, insertDeltas...), item.ID)

	updated, err := s.repo.Items.UpdatePlacement(r.Context(), item.ID, sentiment, placed.Score, newState)
	if err != nil {
		s.logger.Printf("update placement error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place ranking")
		return
	}
	if err := s.repo.Items.UpdateScores(r.Context(), neighborDeltas); err != nil {
		s.logger.Printf("update cascaded scores error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place ranking")
		return
	}

	if err := s.community.Contribute(r.Context(), updated, previous); err != nil {
		s.logger.Printf("aggregate contribution error: %v", err)
		s.respondError(w, http.StatusServiceUnavailable, "RETRYABLE", "Community rating update failed, retry later")
		return
	}
	if err := s.community.ApplyDeltas(r.Context(), neighborDeltas); err != nil {
		s.logger.Printf("aggregate cascade error: %v", err)
	}

	resp := mutationResponse{
		Item:   ptrRankingResponse(updated),
		Deltas: toDeltaResponses(append(neighborDeltas, placementDelta(item, updated))),
		Items:  toRankingResponses(list.Items()),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRanking(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	release, err := s.guard.Acquire(userID)
	if err != nil {
		s.respondError(w, http.StatusConflict, "RECALC_IN_PROGRESS", "Another list mutation is in progress")
		return
	}
	defer release()

	item, ok := s.ownedItem(w, r, userID)
	if !ok {
		return
	}

	stored, err := s.repo.Items.ListByUser(r.Context(), userID, item.MediaType)
	if err != nil {
		s.logger.Printf("list rankings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete ranking")
		return
	}

	list := ranklist.NewList(stored)
	_, deltas := list.Delete(item.ID)

	if err := s.repo.Items.Delete(r.Context(), item.ID); err != nil {
		s.logger.Printf("delete ranking error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete ranking")
		return
	}
	if err := s.repo.Items.UpdateScores(r.Context(), deltas); err != nil {
		s.logger.Printf("update cascaded scores error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete ranking")
		return
	}

	if err := s.community.Withdraw(r.Context(), item); err != nil {
		s.logger.Printf("aggregate withdraw error: %v", err)
		s.respondError(w, http.StatusServiceUnavailable, "RETRYABLE", "Community rating update failed, retry later")
		return
	}
	if err := s.community.ApplyDeltas(r.Context(), deltas); err != nil {
		s.logger.Printf("aggregate cascade error: %v", err)
	}

	resp := mutationResponse{
		Deltas: toDeltaResponses(deltas),
		Items:  toRankingResponses(list.Items()),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	mediaType, err := domain.ParseMediaType(strings.TrimSpace(r.URL.Query().Get("mediaType")))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "mediaType must be movie or series")
		return
	}

	release, err := s.guard.Acquire(userID)
	if err != nil {
		s.respondError(w, http.StatusConflict, "RECALC_IN_PROGRESS", "Another list mutation is in progress")
		return
	}
	defer release()

	stored, err := s.repo.Items.ListByUser(r.Context(), userID, mediaType)
	if err != nil {
		s.logger.Printf("list rankings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recalculate")
		return
	}

	list := ranklist.NewList(stored)
	for _, skipped := range list.Skipped() {
		s.logger.Printf("recalculate: skipping item %s with unknown sentiment %q", skipped.ID, skipped.Sentiment)
	}
	deltas := list.RecalculateAll()

	if err := s.repo.Items.UpdateScores(r.Context(), deltas); err != nil {
		s.logger.Printf("update recalculated scores error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recalculate")
		return
	}
	if err := s.community.ApplyDeltas(r.Context(), deltas); err != nil {
		s.logger.Printf("aggregate cascade error: %v", err)
	}

	resp := mutationResponse{
		Deltas:  toDeltaResponses(deltas),
		Items:   toRankingResponses(list.Items()),
		Skipped: len(list.Skipped()),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRankings(w http.ResponseWriter, r *http.Request) {
	userID := raterID(r)
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	mediaType, err := domain.ParseMediaType(strings.TrimSpace(r.URL.Query().Get("mediaType")))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "mediaType must be movie or series")
		return
	}

	items, err := s.repo.Items.ListByUser(r.Context(), userID, mediaType)
	if err != nil {
		s.logger.Printf("list rankings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list rankings")
		return
	}
	s.respondJSON(w, http.StatusOK, rankingListResponse{Items: toRankingResponses(items)})
}

func (s *Server) handleGetCommunityRating(w http.ResponseWriter, r *http.Request) {
	key, err := decodeTitleKey(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	adjusted, agg, err := s.community.ConfidenceAdjusted(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, repository.ErrCorrupted):
			s.logger.Printf("community rating error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "DATA_CORRUPTION", "Aggregate requires rebuild")
		default:
			s.logger.Printf("community rating error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		}
		return
	}

	resp := communityRatingResponse{
		Rating:      adjusted,
		Average:     scoring.RoundDisplay(agg.Average()),
		Count:       agg.NumberOfRatings,
		LastUpdated: agg.LastUpdated,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.community.Stats()
	s.respondJSON(w, http.StatusOK, statsResponse{
		GlobalMu:     stats.GlobalMu,
		PseudoCount:  stats.PseudoCount,
		TotalRatings: stats.TotalRatings,
		TotalMovies:  stats.TotalTitles,
		ComputedAt:   stats.ComputedAt,
	})
}

func (s *Server) handleRebuildAggregates(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	rebuilt, err := s.community.Rebuild(r.Context())
	if err != nil {
		s.logger.Printf("rebuild aggregates error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rebuild aggregates")
		return
	}
	s.respondJSON(w, http.StatusOK, rebuildResponse{Rebuilt: rebuilt})
}

// ownedItem loads the item in the URL and enforces ownership. Foreign items
// read as not found so ids cannot be probed across users.
func (s *Server) ownedItem(w http.ResponseWriter, r *http.Request, userID string) (domain.RankedItem, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "missing id parameter")
		return domain.RankedItem{}, false
	}

	item, err := s.repo.Items.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return domain.RankedItem{}, false
		}
		s.logger.Printf("fetch ranking error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ranking")
		return domain.RankedItem{}, false
	}
	if item.UserID != userID {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return domain.RankedItem{}, false
	}
	return item, true
}

func raterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func decodeTitleKey(r *http.Request) (domain.TitleKey, error) {
	mediaType, err := domain.ParseMediaType(chi.URLParam(r, "mediaType"))
	if err != nil {
		return domain.TitleKey{}, fmt.Errorf("invalid mediaType parameter")
	}
	tmdbID, err := strconv.ParseInt(chi.URLParam(r, "tmdbId"), 10, 64)
	if err != nil || tmdbID <= 0 {
		return domain.TitleKey{}, fmt.Errorf("invalid tmdbId parameter")
	}
	return domain.TitleKey{TmdbID: tmdbID, MediaType: mediaType}, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AdminToken
}

func toRankingResponse(item domain.RankedItem) rankingResponse {
	return rankingResponse{
		ID:               item.ID,
		Title:            item.Title,
		TmdbID:           item.TmdbID,
		MediaType:        string(item.MediaType),
		PosterPath:       item.PosterPath,
		Sentiment:        string(item.Sentiment),
		Score:            item.Score,
		OriginalScore:    item.OriginalScore,
		ComparisonsCount: item.ComparisonsCount,
		RatingState:      string(item.State),
		Timestamp:        item.UpdatedAt,
	}
}

func ptrRankingResponse(item domain.RankedItem) *rankingResponse {
	resp := toRankingResponse(item)
	return &resp
}

func toRankingResponses(items []domain.RankedItem) []rankingResponse {
	out := make([]rankingResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toRankingResponse(item))
	}
	return out
}

func toDeltaResponses(deltas []domain.ScoreDelta) []scoreDeltaResponse {
	out := make([]scoreDeltaResponse, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, scoreDeltaResponse{
			ItemID:   d.ItemID,
			OldScore: d.OldScore,
			NewScore: d.NewScore,
		})
	}
	return out
}

func dropItem(deltas []domain.ScoreDelta, itemID string) []domain.ScoreDelta {
	out := deltas[:0]
	for _, d := range deltas {
		if d.ItemID == itemID {
			continue
		}
		out = append(out, d)
	}
	return out
}

func placementDelta(before, after domain.RankedItem) domain.ScoreDelta {
	return domain.ScoreDelta{
		ItemID:    after.ID,
		TmdbID:    after.TmdbID,
		MediaType: after.MediaType,
		State:     after.State,
		OldScore:  before.Score,
		NewScore:  after.Score,
	}
}
