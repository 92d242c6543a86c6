// Package auth owns the authentication state machine: who the user is, the
// bearer token, and the profile-thumbnail upload workflow. It is the single
// source of truth every other coordinator consults for "is a user present".
package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/token"
)

// Status tracks the startup state machine: unchecked → checking →
// authenticated | anonymous.
type Status int

const (
	StatusUnchecked Status = iota
	StatusChecking
	StatusAuthenticated
	StatusAnonymous
)

const maxThumbnailBytes = 5 * 1024 * 1024

var allowedThumbnailTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// State is the coordinator's whole-object state. It is replaced, never
// mutated in place, so every transition is observable.
type State struct {
	Status               Status
	IsAuthenticated      bool
	User                 *backend.User
	Token                string
	IsUploadingThumbnail bool
	UploadError          string
}

// Coordinator mediates between the token store, the backend, and the render
// layer. Collaborators arrive at construction; there are no ambient globals.
type Coordinator struct {
	client *backend.Client
	store  *token.Store
	notify func()

	mu      sync.Mutex
	state   State
	checked bool

	// now is swapped by tests to pin cache-busting timestamps.
	now func() time.Time
}

// New returns a Coordinator. notify (optional) fires after every state
// transition.
func New(client *backend.Client, store *token.Store, notify func()) *Coordinator {
	return &Coordinator{
		client: client,
		store:  store,
		notify: notify,
		state:  State{Status: StatusUnchecked},
		now:    time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsAuthenticated reports whether a validated user is present.
func (c *Coordinator) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsAuthenticated
}

func (c *Coordinator) setState(mutate func(*State)) {
	c.mu.Lock()
	next := c.state
	mutate(&next)
	c.state = next
	c.mu.Unlock()
	if c.notify != nil {
		c.notify()
	}
}

// CheckAuthStatus validates any stored token against the backend. It runs
// exactly once per process; repeat calls are no-ops. A present-but-invalid
// token is cleared before settling anonymous.
func (c *Coordinator) CheckAuthStatus(ctx context.Context) {
	c.mu.Lock()
	if c.checked {
		c.mu.Unlock()
		return
	}
	c.checked = true
	c.mu.Unlock()

	c.setState(func(s *State) { s.Status = StatusChecking })

	stored, err := c.store.Load()
	if err != nil || stored == "" {
		c.settleAnonymous()
		return
	}

	c.client.SetAuthToken(stored)
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		_ = c.store.Clear()
		c.client.RemoveAuthToken()
		c.settleAnonymous()
		return
	}

	c.setState(func(s *State) {
		s.Status = StatusAuthenticated
		s.IsAuthenticated = true
		s.User = user
		s.Token = stored
	})
}

func (c *Coordinator) settleAnonymous() {
	c.setState(func(s *State) {
		s.Status = StatusAnonymous
		s.IsAuthenticated = false
		s.User = nil
		s.Token = ""
	})
}

// AcceptSession installs a freshly issued token and user, persisting the
// token for future sessions. Used by the login/register form on success.
func (c *Coordinator) AcceptSession(payload *backend.AuthPayload) error {
	if err := c.store.Save(payload.Token); err != nil {
		return err
	}
	c.client.SetAuthToken(payload.Token)
	user := payload.User
	c.setState(func(s *State) {
		s.Status = StatusAuthenticated
		s.IsAuthenticated = true
		s.User = &user
		s.Token = payload.Token
	})
	return nil
}

// Logout clears the stored token and the client's bearer header and settles
// anonymous without a network round-trip. Safe to call repeatedly.
func (c *Coordinator) Logout() {
	_ = c.store.Clear()
	c.client.RemoveAuthToken()
	c.settleAnonymous()
}

// UploadThumbnail validates the file locally, then uploads it. Oversized or
// wrongly typed files are rejected before any network call, as is a second
// upload while one is in flight. On success the user's thumbnail URL gains a
// cache-busting query parameter so stale renders are impossible.
func (c *Coordinator) UploadThumbnail(ctx context.Context, path string) {
	c.mu.Lock()
	if !c.state.IsAuthenticated || c.state.Token == "" {
		c.mu.Unlock()
		c.setState(func(s *State) { s.UploadError = "Not authenticated" })
		return
	}
	if c.state.IsUploadingThumbnail {
		c.mu.Unlock()
		c.setState(func(s *State) { s.UploadError = "Another upload is already in progress" })
		return
	}
	c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		c.setState(func(s *State) { s.UploadError = err.Error() })
		return
	}
	if info.Size() > maxThumbnailBytes {
		c.setState(func(s *State) { s.UploadError = "File size must be less than 5MB" })
		return
	}
	contentType := thumbnailContentType(path)
	if !allowedThumbnailTypes[contentType] {
		c.setState(func(s *State) { s.UploadError = "Invalid file type. Allowed: JPEG, PNG, GIF, WebP" })
		return
	}

	c.setState(func(s *State) {
		s.IsUploadingThumbnail = true
		s.UploadError = ""
	})

	file, err := os.Open(path)
	if err != nil {
		c.setState(func(s *State) {
			s.IsUploadingThumbnail = false
			s.UploadError = err.Error()
		})
		return
	}
	defer file.Close()

	result, err := c.upload(ctx, filepath.Base(path), contentType, file)
	if err != nil {
		c.setState(func(s *State) {
			s.IsUploadingThumbnail = false
			s.UploadError = err.Error()
		})
		return
	}

	busted := fmt.Sprintf("%s?t=%d", result.ThumbnailURL, c.now().UnixMilli())
	c.setState(func(s *State) {
		s.IsUploadingThumbnail = false
		if s.User != nil {
			user := *s.User
			user.ThumbnailURL = busted
			s.User = &user
		}
	})
}

func (c *Coordinator) upload(ctx context.Context, filename, contentType string, file io.Reader) (*backend.UploadResult, error) {
	return c.client.UploadThumbnail(ctx, filename, contentType, file)
}

// ClearUploadError dismisses the upload error banner.
func (c *Coordinator) ClearUploadError() {
	c.setState(func(s *State) { s.UploadError = "" })
}

func thumbnailContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpeg":
		return "image/jpeg"
	case ".jpg":
		return "image/jpg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
