package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwebster45206/q3a-report/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameSource exposes the games of a run while it is being read.
type GameSource interface {
	Current() *game.Report
	Finished() []*game.Report
}

type GamesHandler struct {
	games  GameSource
	logger *slog.Logger
}

func NewGamesHandler(games GameSource, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		games:  games,
		logger: logger,
	}
}

// ServeHTTP handles read-only game requests
// Routes:
// GET /v1/games         - Finished games, oldest first, as an array of reports
// GET /v1/games/current - The game in progress
// GET /v1/games/{n}     - Finished game n
func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")
	switch path {
	case "":
		finished := h.games.Finished()
		if finished == nil {
			finished = []*game.Report{}
		}
		h.writeJSON(w, r, finished)
	case "current":
		h.writeJSON(w, r, h.games.Current())
	default:
		n, err := strconv.Atoi(strings.TrimPrefix(path, "game"))
		if err != nil || n < 0 {
			h.logger.Debug("Invalid game index", "path", r.URL.Path)
			h.writeError(w, http.StatusBadRequest, "Invalid game index")
			return
		}
		finished := h.games.Finished()
		if n >= len(finished) {
			h.writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		h.writeJSON(w, r, finished[n])
	}
}

func (h *GamesHandler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding games response",
			"error", err,
			"path", r.URL.Path)
	}
}

func (h *GamesHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
