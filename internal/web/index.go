package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/russross/blackfriday/v2"

	"rallyrank/internal/back"
	"rallyrank/internal/logging"
	"rallyrank/resources"
)

const indexLayout = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>RallyRank API</title></head>
<body>%s</body></html>`

// index serves the API documentation.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	body := blackfriday.Run(resources.APIDoc)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.cache(w, "public", 1*time.Hour)
	if _, err := w.Write([]byte(fmt.Sprintf(indexLayout, body))); err != nil {
		logging.Error().Err(err).Msg("unable to send response")
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.response(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.back.GetRankings(r.Context())
	if err != nil {
		s.error(w, r, err)
		return
	}

	for k := range rankings {
		rankings[k].Title = back.Title(s.t(r, string(rankings[k].Title)))
	}

	s.response(w, http.StatusOK, rankings)
}
