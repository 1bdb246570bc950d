// Package server exposes the ranking query surface and channel management
// over a local JSON API.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/youtube"
)

// Server is the HTTP server for rankings, stats, and channel management.
type Server struct {
	db       *database.DB
	ledger   *quota.Ledger
	provider youtube.Provider
	router   chi.Router
}

// New creates a Server. provider may be nil, which disables channel search.
func New(db *database.DB, ledger *quota.Ledger, provider youtube.Provider) *Server {
	s := &Server{
		db:       db,
		ledger:   ledger,
		provider: provider,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/quota", s.handleQuota)
		r.Get("/rankings/{type}", s.handleRankings)
		r.Get("/channels", s.handleListChannels)
		r.Post("/channels", s.handleAddChannel)
		r.Delete("/channels/{id}", s.handleRemoveChannel)
		r.Get("/search/channels", s.handleSearchChannels)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active_channels":     stats.ActiveChannels,
		"total_videos":        stats.TotalVideos,
		"total_shorts":        stats.TotalShorts,
		"total_long_videos":   stats.TotalLongVideos,
		"today_rankings":      stats.TodayRankings,
		"total_samples":       stats.TotalSamples,
		"api_quota_used":      s.ledger.Consumed(),
		"api_quota_remaining": s.ledger.Remaining(),
	})
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"used":      s.ledger.Consumed(),
		"limit":     s.ledger.Limit(),
		"remaining": s.ledger.Remaining(),
	})
}

// rankingItem is one row of a rankings response.
type rankingItem struct {
	Position      int     `json:"position"`
	VideoID       string  `json:"video_id"`
	Title         string  `json:"title"`
	ChannelID     string  `json:"channel_id"`
	ChannelName   string  `json:"channel_name"`
	Category      string  `json:"category"`
	HeatScore     float64 `json:"heat_score"`
	ViewIncrement int64   `json:"view_increment"`
	ViewCount     int64   `json:"view_count"`
	LikeCount     int64   `json:"like_count"`
	CommentCount  int64   `json:"comment_count"`
	Duration      int     `json:"duration_seconds"`
	PublishedAt   string  `json:"published_at"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rankType := chi.URLParam(r, "type")

	var category database.Category
	switch rankType {
	case "shorts":
		category = database.CategoryShorts
	case "long":
		category = database.CategoryLong
	case "all":
		category = ""
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown ranking type %q", rankType))
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = database.Today()
	}

	ranked, err := s.db.GetRanking(date, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading ranking")
		return
	}

	items := make([]rankingItem, 0, len(ranked))
	for _, rv := range ranked {
		item := rankingItem{
			Position:      rv.Position,
			VideoID:       rv.VideoID,
			Title:         rv.Title,
			ChannelID:     rv.ChannelID,
			ChannelName:   rv.ChannelName,
			Category:      string(rv.Category),
			HeatScore:     rv.HeatScore,
			ViewIncrement: rv.ViewIncrement,
			ViewCount:     rv.ViewCount,
			LikeCount:     rv.LikeCount,
			CommentCount:  rv.CommentCount,
			Duration:      rv.Duration,
			PublishedAt:   rv.PublishedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if rv.ThumbnailURL != nil {
			item.ThumbnailURL = *rv.ThumbnailURL
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     rankType,
		"date":     date,
		"count":    len(items),
		"rankings": items,
	})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.db.GetActiveChannels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading channels")
		return
	}

	type channelItem struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	items := make([]channelItem, 0, len(channels))
	for _, c := range channels {
		item := channelItem{ID: c.ID, Name: c.Name}
		if c.Description != nil {
			item.Description = *c.Description
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": items})
}

func (s *Server) handleAddChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" || body.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	added, err := s.db.InsertChannel(body.ID, body.Name, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "adding channel")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "channel already tracked")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": body.ID, "name": body.Name})
}

func (s *Server) handleRemoveChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	channel, err := s.db.GetChannelByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading channel")
		return
	}
	if channel == nil {
		writeError(w, http.StatusNotFound, "channel not tracked")
		return
	}

	if err := s.db.DeactivateChannel(id); err != nil {
		writeError(w, http.StatusInternalServerError, "removing channel")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": true})
}

func (s *Server) handleSearchChannels(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "channel search not configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	// Search burns 100 units per call; reserve up front so concurrent
	// searches cannot jointly overspend.
	if !s.ledger.Reserve(youtube.CostSearch) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error":     "insufficient quota",
			"remaining": s.ledger.Remaining(),
		})
		return
	}

	results, nextPage, err := s.provider.SearchChannels(r.Context(), query, r.URL.Query().Get("pageToken"))
	if err != nil {
		log.Printf("Channel search failed: %v", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	type searchItem struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Thumbnail   string `json:"thumbnail,omitempty"`
		Tracked     bool   `json:"tracked"`
	}
	items := make([]searchItem, 0, len(results))
	for _, res := range results {
		known, _ := s.db.GetChannelByID(res.ID)
		items = append(items, searchItem{
			ID:          res.ID,
			Title:       res.Title,
			Description: res.Description,
			Thumbnail:   res.Thumbnail,
			Tracked:     known != nil && known.IsActive,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channels":        items,
		"next_page_token": nextPage,
		"quota_remaining": s.ledger.Remaining(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, ledger *quota.Ledger, provider youtube.Provider, port int) error {
	srv := New(db, ledger, provider)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
