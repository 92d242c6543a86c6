// Package foldersync keeps the search and dashboard folder lists convergent.
// Both coordinators load folders independently, so a mutation on one side
// leaves the other stale. Coordinators announce folder-mutating calls; the
// syncer serializes those events through one goroutine, compares content
// hashes, and reloads the side that did not originate the change. The
// reentrancy guard plus hash convergence stops mutual re-triggering.
package foldersync

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/papr-project/papr/internal/backend"
)

// Origin names the side that just mutated folders.
type Origin int

const (
	FromSearch Origin = iota
	FromDashboard
)

// Side is the slice of a coordinator the syncer needs: observe the folder
// list and reload it.
type Side interface {
	Folders() []backend.Folder
	LoadFolders(ctx context.Context)
}

// Syncer reconciles the two folder lists.
type Syncer struct {
	search    Side
	dashboard Side

	events chan Origin
	done   chan struct{}

	mu      sync.Mutex
	syncing bool
	pending *Origin
	closed  bool
}

// New builds a syncer over the two coordinators. Start must be called before
// Notify has any effect.
func New(search, dashboard Side) *Syncer {
	return &Syncer{
		search:    search,
		dashboard: dashboard,
		events:    make(chan Origin, 16),
		done:      make(chan struct{}),
	}
}

// Start launches the queue goroutine.
func (s *Syncer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case origin := <-s.events:
				s.SyncNow(ctx, origin)
			}
		}
	}()
}

// Close stops the queue goroutine. Safe to call once.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Notify enqueues a sync pass for a folder mutation on the given side. An
// event arriving while a pass runs is held as pending and reconciled by a
// follow-up pass, so a mutation landing after the running pass has read both
// lists is not lost. A reload-triggered notification converges on that
// follow-up pass (equal digests, no reload), so there is no loop.
func (s *Syncer) Notify(origin Origin) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.syncing {
		s.pending = &origin
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	select {
	case s.events <- origin:
	default:
		log.Printf("foldersync: event queue full, dropping %v", origin)
	}
}

// SyncNow runs reconciliation passes synchronously until no pending event
// remains. Called while a pass runs it records the event and returns; the
// running call picks it up.
func (s *Syncer) SyncNow(ctx context.Context, origin Origin) {
	s.mu.Lock()
	if s.syncing {
		s.pending = &origin
		s.mu.Unlock()
		return
	}
	s.syncing = true
	s.mu.Unlock()

	for {
		s.runPass(ctx, origin)

		s.mu.Lock()
		if s.pending == nil {
			s.syncing = false
			s.mu.Unlock()
			return
		}
		origin = *s.pending
		s.pending = nil
		s.mu.Unlock()
	}
}

// runPass is one reconciliation: converged hashes mean no reload; otherwise
// the side opposite the origin reloads.
func (s *Syncer) runPass(ctx context.Context, origin Origin) {
	if Digest(s.search.Folders()) == Digest(s.dashboard.Folders()) {
		return
	}

	switch origin {
	case FromSearch:
		s.dashboard.LoadFolders(ctx)
	case FromDashboard:
		s.search.LoadFolders(ctx)
	}
}

// Digest hashes a folder list order-independently: membership, paper counts,
// and update timestamps move it, ordering does not.
func Digest(folders []backend.Folder) string {
	parts := make([]string, 0, len(folders))
	for _, folder := range folders {
		parts = append(parts, folder.ID+":"+strconv.Itoa(folder.PaperCount)+":"+folder.UpdatedAt)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
