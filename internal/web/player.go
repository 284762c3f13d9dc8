package web

import (
	"net/http"

	"rallyrank/internal/back"
)

func (s *Server) getPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.back.GetPlayers(r.Context())
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, players)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}

	player, err := s.back.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusCreated, player)
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	player, err := s.back.GetPlayer(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) deactivatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	player, err := s.back.DeactivatePlayer(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) reactivatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	player, err := s.back.ReactivatePlayer(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) purgePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	if err := s.back.DeletePlayer(r.Context(), id); err != nil {
		s.error(w, r, err)
		return
	}

	noContent(w)
}

func (s *Server) getPlayerStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	stats, err := s.back.GetPlayerStats(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	stats.Title = back.Title(s.t(r, string(stats.Title)))
	s.response(w, http.StatusOK, stats)
}

func (s *Server) getPlayerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	history, err := s.back.GetRatingHistory(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, history)
}

func (s *Server) getPlayerGames(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	games, err := s.back.GetGames(r.Context(), back.GameFilter{PlayerID: id, Limit: q.Limit})
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.response(w, http.StatusOK, games)
}

func (s *Server) getPlayerRatingChart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	svg, err := s.back.GetPlayerRatingGraph(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.svg(w, svg)
}

func (s *Server) getPlayerResultsChart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	svg, err := s.back.GetPlayerResultsGraph(r.Context(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}

	s.svg(w, svg)
}
