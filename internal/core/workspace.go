package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sweeper/internal/table"
)

// UploadedFile is an immutable uploaded payload. ID is assigned when the
// file enters a workspace and namespaces that file's options.
type UploadedFile struct {
	ID      string
	Name    string
	Size    int64
	Data    []byte
	AddedAt time.Time
}

// SizeKB returns the file size in kilobytes.
func (f UploadedFile) SizeKB() float64 {
	return float64(f.Size) / 1024
}

// Extension returns the lower-cased extension of the file name.
func (f UploadedFile) Extension() string {
	return table.Extension(f.Name)
}

// Workspace is a browser session's set of uploaded files, kept in memory
// only.
type Workspace struct {
	ID         string
	Files      []UploadedFile
	CreatedAt  time.Time
	LastAccess time.Time
}

// File looks up a file by ID.
func (w Workspace) File(id string) (UploadedFile, bool) {
	for _, f := range w.Files {
		if f.ID == id {
			return f, true
		}
	}
	return UploadedFile{}, false
}

// WorkspaceLimits bounds what a workspace may hold.
type WorkspaceLimits struct {
	MaxFileSize int64
	MaxFiles    int
	TTL         time.Duration
}

// WorkspaceStore holds workspaces in memory. It is safe for concurrent use.
type WorkspaceStore struct {
	mu     sync.Mutex
	spaces map[string]*Workspace
	limits WorkspaceLimits
	now    func() time.Time
}

// NewWorkspaceStore creates an empty store.
func NewWorkspaceStore(limits WorkspaceLimits) *WorkspaceStore {
	return &WorkspaceStore{
		spaces: make(map[string]*Workspace),
		limits: limits,
		now:    time.Now,
	}
}

// Create makes a new empty workspace.
func (s *WorkspaceStore) Create() Workspace {
	now := s.now()
	ws := &Workspace{ID: uuid.NewString(), CreatedAt: now, LastAccess: now}

	s.mu.Lock()
	s.spaces[ws.ID] = ws
	s.mu.Unlock()
	return snapshot(ws)
}

// Add stores a file in the workspace after checking its type and the
// workspace limits.
func (s *WorkspaceStore) Add(wsID, name string, data []byte) (UploadedFile, error) {
	name = filepath.Base(name)
	if !table.Supported(table.Extension(name)) {
		return UploadedFile{}, fmt.Errorf("%s: %w", name, table.ErrUnsupportedFormat)
	}
	if s.limits.MaxFileSize > 0 && int64(len(data)) > s.limits.MaxFileSize {
		return UploadedFile{}, fmt.Errorf("%s: %w: %d bytes exceeds %d", name, ErrFileTooLarge, len(data), s.limits.MaxFileSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.spaces[wsID]
	if !ok {
		return UploadedFile{}, ErrWorkspaceNotFound
	}
	if s.limits.MaxFiles > 0 && len(ws.Files) >= s.limits.MaxFiles {
		return UploadedFile{}, fmt.Errorf("%w: limit is %d", ErrTooManyFiles, s.limits.MaxFiles)
	}

	now := s.now()
	f := UploadedFile{
		ID:      uuid.NewString(),
		Name:    name,
		Size:    int64(len(data)),
		Data:    data,
		AddedAt: now,
	}
	ws.Files = append(ws.Files, f)
	ws.LastAccess = now
	return f, nil
}

// Get returns a snapshot of the workspace and marks it as used.
func (s *WorkspaceStore) Get(id string) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.spaces[id]
	if !ok {
		return Workspace{}, ErrWorkspaceNotFound
	}
	ws.LastAccess = s.now()
	return snapshot(ws), nil
}

// File returns one file of a workspace.
func (s *WorkspaceStore) File(wsID, fileID string) (UploadedFile, error) {
	ws, err := s.Get(wsID)
	if err != nil {
		return UploadedFile{}, err
	}
	f, ok := ws.File(fileID)
	if !ok {
		return UploadedFile{}, ErrFileNotFound
	}
	return f, nil
}

// Remove drops one file from a workspace.
func (s *WorkspaceStore) Remove(wsID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.spaces[wsID]
	if !ok {
		return ErrWorkspaceNotFound
	}
	for i, f := range ws.Files {
		if f.ID == fileID {
			ws.Files = append(ws.Files[:i:i], ws.Files[i+1:]...)
			ws.LastAccess = s.now()
			return nil
		}
	}
	return ErrFileNotFound
}

// Delete removes a workspace and its files.
func (s *WorkspaceStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spaces[id]; !ok {
		return ErrWorkspaceNotFound
	}
	delete(s.spaces, id)
	return nil
}

// Len returns the number of live workspaces.
func (s *WorkspaceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spaces)
}

// Expire removes workspaces idle longer than the TTL and returns how many
// were removed. A zero TTL never expires anything.
func (s *WorkspaceStore) Expire() int {
	if s.limits.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.limits.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.spaces {
		if ws.LastAccess.Before(cutoff) {
			delete(s.spaces, id)
			removed++
		}
	}
	return removed
}

// StartJanitor expires idle workspaces every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *WorkspaceStore) StartJanitor(ctx context.Context, interval time.Duration) {
	slog.Info("workspace janitor started",
		"interval", interval.String(),
		"ttl", s.limits.TTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("workspace janitor stopped")
			return
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				slog.Info("expired idle workspaces", "removed", n, "remaining", s.Len())
			}
		}
	}
}

func snapshot(ws *Workspace) Workspace {
	cp := *ws
	cp.Files = append([]UploadedFile(nil), ws.Files...)
	return cp
}
