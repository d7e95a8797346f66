package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Harvest/internal/filter"
)

// GetKeywords возвращает текущий список negative keywords.
// GET /api/v1/keywords
func (h *Handler) GetKeywords(w http.ResponseWriter, _ *http.Request) {
	if h.keywords == nil {
		Unavailable(w, "keyword filter is not configured")
		return
	}
	Success(w, keywordsFromSnapshot(h.keywords.Snapshot()))
}

// UpdateKeywords заменяет список целиком.
// PUT /api/v1/keywords
func (h *Handler) UpdateKeywords(w http.ResponseWriter, r *http.Request) {
	if h.keywords == nil {
		Unavailable(w, "keyword filter is not configured")
		return
	}

	var req KeywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Keywords == nil {
		BadRequest(w, "invalid request body: keywords required")
		return
	}

	snap, err := h.keywords.Update(req.Keywords)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	h.logger.Info("keywords updated", "version", snap.Version(), "count", len(snap.Keywords()))
	Success(w, keywordsFromSnapshot(snap))
}

// MatchKeywords проверяет текст по текущему списку.
// POST /api/v1/keywords/match
func (h *Handler) MatchKeywords(w http.ResponseWriter, r *http.Request) {
	if h.keywords == nil {
		Unavailable(w, "keyword filter is not configured")
		return
	}

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// один snapshot на весь запрос
	snap := h.keywords.Snapshot()
	found := snap.Find(req.Text)
	Success(w, MatchResponse{Matched: found != "", Keyword: found, Version: snap.Version()})
}

func keywordsFromSnapshot(s *filter.Snapshot) KeywordsResponse {
	return KeywordsResponse{
		Keywords:  s.Keywords(),
		Version:   s.Version(),
		UpdatedAt: s.UpdatedAt(),
	}
}
