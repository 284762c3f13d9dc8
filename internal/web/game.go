package web

import (
	"io"
	"net/http"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-json"

	"rallyrank/internal/back"
	"rallyrank/internal/util"
)

func (s *Server) getGames(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	games, err := s.back.GetGames(r.Context(), back.GameFilter{Limit: q.Limit})
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, games)
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}

	game, err := s.back.CreateGame(r.Context(), back.GameInput{
		Player1ID:    req.Player1ID,
		Player2ID:    req.Player2ID,
		Player1Score: *req.Player1Score,
		Player2Score: *req.Player2Score,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusCreated, game)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	game, err := s.back.GetGame(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, game)
}

func (s *Server) updateGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	var req scoresRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}

	s.updateScores(w, r, id, req)
}

// patchGame applies a JSON merge patch to the current scores, fields left
// out of the patch keep their value.
func (s *Server) patchGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	patch, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.error(w, r, util.ErrPublic("unable to read body"))
		return
	}

	game, err := s.back.GetGame(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	original, err := json.Marshal(scoresRequest{
		Player1Score: &game.Player1Score,
		Player2Score: &game.Player2Score,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}

	patched, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		s.error(w, r, util.ErrPublic("invalid merge patch: "+err.Error()))
		return
	}

	var req scoresRequest
	if err := decodeBytes(patched, &req); err != nil {
		s.error(w, r, err)
		return
	}

	s.updateScores(w, r, id, req)
}

func (s *Server) updateScores(w http.ResponseWriter, r *http.Request, id util.UUIDAsBlob, req scoresRequest) {
	game, err := s.back.UpdateGameScores(r.Context(), id, *req.Player1Score, *req.Player2Score)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, game)
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	if err := s.back.DeleteGame(r.Context(), id); err != nil {
		s.error(w, r, err)
		return
	}

	noContent(w)
}
