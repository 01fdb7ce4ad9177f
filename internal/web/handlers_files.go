package web

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sweeper/internal/chart"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
)

// handleChart renders the numeric series of one file as a PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runFile(w, r, func(o *core.FileOptions) { o.ShowChart = true })
	if !ok {
		return
	}
	if !res.HasSeries {
		s.respondError(w, r, chart.ErrNoData, statusFor(chart.ErrNoData))
		return
	}

	var buf bytes.Buffer
	err := chart.RenderSeries(&buf, res.Series, chart.Options{
		Title:  res.File.Name,
		Width:  s.cfg.Chart.Width,
		Height: s.cfg.Chart.Height,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// handleExport downloads the transformed file in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runFile(w, r, nil)
	if !ok {
		return
	}

	out, err := res.Export()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	s.metrics.exports.WithLabelValues(string(res.Options.Format)).Inc()
	logging.WithFields(r.Context(), "file_id", res.File.ID).Info("export ready",
		"file", out.FileName,
		"format", res.Options.Format,
		"bytes", len(out.Data),
	)

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	_, _ = w.Write(out.Data)
}
