package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling parts to temporary files.
const multipartMemory = 32 << 20

// uploadedPart is one file read from a multipart request.
type uploadedPart struct {
	name string
	data []byte
}

// handleUpload creates a workspace from the uploaded files and redirects
// to it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	parts, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ws := s.store.Create()
	for _, part := range parts {
		if _, err := s.store.Add(ws.ID, part.name, part.data); err != nil {
			_ = s.store.Delete(ws.ID)
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}
	s.metrics.uploads.Add(float64(len(parts)))

	logging.WithFields(r.Context(), "workspace_id", ws.ID).Info("workspace created", "files", len(parts))
	http.Redirect(w, r, workspaceURL(ws.ID), http.StatusSeeOther)
}

// handleAddFiles adds files to an existing workspace. Files before a
// rejected one stay in the workspace.
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	wsID := chi.URLParam(r, "workspaceID")
	if _, err := s.store.Get(wsID); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	parts, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	for _, part := range parts {
		if _, err := s.store.Add(wsID, part.name, part.data); err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		s.metrics.uploads.Inc()
	}

	logging.WithFields(r.Context(), "workspace_id", wsID).Info("files added", "files", len(parts))
	http.Redirect(w, r, workspaceURL(wsID), http.StatusSeeOther)
}

// handleDeleteFile removes one file and returns to the workspace.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	wsID := chi.URLParam(r, "workspaceID")
	fileID := chi.URLParam(r, "fileID")

	if err := s.store.Remove(wsID, fileID); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	http.Redirect(w, r, workspaceURL(wsID), http.StatusSeeOther)
}

// handleWorkspace re-runs the pipeline for every file with the options in
// the query string and renders the result.
func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.Get(chi.URLParam(r, "workspaceID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	results, err := s.runFiles(r.Context(), ws.Files, r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	view := templates.WorkspaceView{
		ID:       ws.ID,
		MaxFiles: s.cfg.Upload.MaxFiles,
		Files:    make([]templates.FileView, len(results)),
	}
	for i, res := range results {
		fv := templates.FileView{
			Result: res,
			Query:  encodeFileOptions(res.Options, res.Summary.Columns),
		}
		if res.Err != nil {
			logging.WithFields(r.Context(), "workspace_id", ws.ID, "file_id", res.File.ID).
				Warn("pipeline failed", "error", res.Err)
			msg := core.MapError(res.Err)
			fv.Error = &msg
		}
		view.Files[i] = fv
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.WorkspacePage(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render workspace", "error", err)
	}
}

// runFiles processes files under one run limiter slot. A file whose options
// do not parse fails on its own.
func (s *Server) runFiles(ctx context.Context, files []core.UploadedFile, q url.Values) ([]*core.FileResult, error) {
	results := make([]*core.FileResult, len(files))
	err := s.runs.Do(ctx, func() error {
		for i, f := range files {
			opts, err := parseFileOptions(q, f.ID)
			if err != nil {
				results[i] = &core.FileResult{File: f, Options: opts, Err: fmt.Errorf("%s: %w", f.Name, err)}
				s.metrics.observe(results[i])
				continue
			}
			results[i] = s.metrics.process(f, opts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// runFile processes the file named by the route with the options in the
// query string, after adjust has had a chance to override them. It writes
// the error response itself and reports false on failure.
func (s *Server) runFile(w http.ResponseWriter, r *http.Request, adjust func(*core.FileOptions)) (*core.FileResult, bool) {
	wsID := chi.URLParam(r, "workspaceID")
	fileID := chi.URLParam(r, "fileID")

	file, err := s.store.File(wsID, fileID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}

	opts, err := parseFileOptions(r.URL.Query(), fileID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	if adjust != nil {
		adjust(&opts)
	}

	var res *core.FileResult
	if err := s.runs.Do(r.Context(), func() error {
		res = s.metrics.process(file, opts)
		return nil
	}); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	if res.Err != nil {
		s.respondError(w, r, res.Err, statusFor(res.Err))
		return nil, false
	}
	return res, true
}

// readUploads reads every part of the "files" field, bounded by the
// configured request size.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]uploadedPart, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, core.ErrNoFile
		}
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}

	parts := make([]uploadedPart, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > s.cfg.Upload.MaxFileSize {
			return nil, fmt.Errorf("%s: %w", fh.Filename, core.ErrFileTooLarge)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		parts = append(parts, uploadedPart{name: fh.Filename, data: data})
	}
	return parts, nil
}

func workspaceURL(id string) string {
	return "/w/" + url.PathEscape(id)
}
