package web

import (
	"net/http"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// handleFileSummary returns the processed view of one file as JSON.
func (s *Server) handleFileSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runFile(w, r, nil)
	if !ok {
		return
	}
	writeJSON(w, r, core.NewReport(res))
}
