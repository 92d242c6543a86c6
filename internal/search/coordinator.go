// Package search drives the paper-search screen: querying the backend,
// tracking which results are already saved, and the folder-selection workflow
// that mediates every save.
package search

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/papr-project/papr/internal/auth"
	"github.com/papr-project/papr/internal/backend"
)

const (
	pageSize      = 10
	warmBatchSize = 1000
)

// State is replaced wholesale on every transition. The two ID sets are cloned
// on write so snapshots never alias live state.
type State struct {
	Query     string
	Results   []backend.Paper
	Total     int
	IsLoading bool
	Error     string

	SavedPaperIDs  map[string]bool
	SavingPaperIDs map[string]bool

	Folders []backend.Folder

	// Folder-selection workflow: every save passes through it.
	ShowFolderPicker bool
	PendingPaperID   string
	NewFolderName    string
}

// Coordinator owns search state. All remote failures are caught at the method
// boundary and land in the single Error field.
type Coordinator struct {
	client  *backend.Client
	session *auth.Coordinator
	notify  func()

	mu    sync.Mutex
	state State
}

// New builds a search coordinator. notify (optional) fires after every state
// transition.
func New(client *backend.Client, session *auth.Coordinator, notify func()) *Coordinator {
	return &Coordinator{
		client:  client,
		session: session,
		notify:  notify,
		state: State{
			SavedPaperIDs:  map[string]bool{},
			SavingPaperIDs: map[string]bool{},
		},
	}
}

// Folders returns the current folder list.
func (c *Coordinator) Folders() []backend.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Folders
}

// Snapshot returns a copy of the state with cloned ID sets.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	state.SavedPaperIDs = cloneSet(c.state.SavedPaperIDs)
	state.SavingPaperIDs = cloneSet(c.state.SavingPaperIDs)
	return state
}

func (c *Coordinator) setState(mutate func(*State)) {
	c.mu.Lock()
	next := c.state
	next.SavedPaperIDs = cloneSet(c.state.SavedPaperIDs)
	next.SavingPaperIDs = cloneSet(c.state.SavingPaperIDs)
	mutate(&next)
	c.state = next
	c.mu.Unlock()
	if c.notify != nil {
		c.notify()
	}
}

// SetQuery records the query text without searching.
func (c *Coordinator) SetQuery(query string) {
	c.setState(func(s *State) { s.Query = query })
}

// ClearError dismisses the error banner.
func (c *Coordinator) ClearError() {
	c.setState(func(s *State) { s.Error = "" })
}

// PerformSearch runs the paged search. A blank or whitespace-only query is a
// complete no-op: no network call, existing results untouched.
func (c *Coordinator) PerformSearch(ctx context.Context) {
	c.mu.Lock()
	query := c.state.Query
	c.mu.Unlock()
	if strings.TrimSpace(query) == "" {
		return
	}

	c.setState(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	result, err := c.client.SearchPapers(ctx, query, pageSize, 0)
	if err != nil {
		c.setState(func(s *State) {
			s.IsLoading = false
			s.Error = err.Error()
		})
		return
	}

	c.setState(func(s *State) {
		s.IsLoading = false
		s.Results = result.Papers
		s.Total = result.Total
	})
}

// SavePaper begins the save workflow for a result. Saving always goes through
// folder selection; an already-saved paper is a silent no-op.
func (c *Coordinator) SavePaper(paperID string) {
	if !c.session.IsAuthenticated() {
		c.setState(func(s *State) { s.Error = "Please log in to save papers" })
		return
	}

	c.mu.Lock()
	alreadySaved := c.state.SavedPaperIDs[paperID]
	c.mu.Unlock()
	if alreadySaved {
		return
	}

	c.setState(func(s *State) {
		s.ShowFolderPicker = true
		s.PendingPaperID = paperID
	})
}

// CloseFolderPicker abandons the pending save.
func (c *Coordinator) CloseFolderPicker() {
	c.setState(func(s *State) {
		s.ShowFolderPicker = false
		s.PendingPaperID = ""
		s.NewFolderName = ""
	})
}

// SetNewFolderName records the name typed into the picker's create field.
func (c *Coordinator) SetNewFolderName(name string) {
	c.setState(func(s *State) { s.NewFolderName = name })
}

// SavePaperToFolder saves the paper, then files it into the folder when one
// was chosen. The move is a second sequential call keyed by the save record's
// paper ID; a failure between the two leaves the paper saved but unfiled.
func (c *Coordinator) SavePaperToFolder(ctx context.Context, paperID string, folderID *string) {
	c.setState(func(s *State) {
		s.ShowFolderPicker = false
		s.PendingPaperID = ""
		s.NewFolderName = ""
		s.SavingPaperIDs[paperID] = true
	})

	saved, err := c.client.SavePaper(ctx, paperID, "", nil)
	if err == nil && folderID != nil {
		_, err = c.client.MovePaperToFolder(ctx, saved.PaperID, folderID)
	}
	if err != nil {
		c.setState(func(s *State) {
			delete(s.SavingPaperIDs, paperID)
			s.Error = err.Error()
		})
		return
	}

	c.setState(func(s *State) {
		delete(s.SavingPaperIDs, paperID)
		s.SavedPaperIDs[paperID] = true
	})
	c.LoadFolders(ctx)
}

// CreateFolderAndSave creates the folder typed into the picker and files the
// pending paper into it. Blank name or no pending paper is a no-op.
func (c *Coordinator) CreateFolderAndSave(ctx context.Context) {
	c.mu.Lock()
	name := strings.TrimSpace(c.state.NewFolderName)
	pending := c.state.PendingPaperID
	c.mu.Unlock()
	if name == "" || pending == "" {
		return
	}

	folder, err := c.client.CreateFolder(ctx, name)
	if err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.setState(func(s *State) {
		s.Folders = append(append([]backend.Folder{}, s.Folders...), *folder)
		s.NewFolderName = ""
	})
	c.SavePaperToFolder(ctx, pending, &folder.ID)
}

// UnsavePaper removes the paper from the library. The local saved set only
// shrinks after the remote call resolves.
func (c *Coordinator) UnsavePaper(ctx context.Context, paperID string) {
	if !c.session.IsAuthenticated() {
		c.setState(func(s *State) { s.Error = "Please log in to manage papers" })
		return
	}

	if _, err := c.client.UnsavePaper(ctx, paperID); err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.setState(func(s *State) { delete(s.SavedPaperIDs, paperID) })
	c.LoadFolders(ctx)
}

// LoadSavedPaperIDs warms the saved set so results render their markers.
// Failures are logged, never surfaced.
func (c *Coordinator) LoadSavedPaperIDs(ctx context.Context) {
	if !c.session.IsAuthenticated() {
		return
	}

	saved, err := c.client.GetSavedPapers(ctx, warmBatchSize, 0, backend.AllFolders())
	if err != nil {
		log.Printf("search: load saved paper ids: %v", err)
		return
	}

	ids := make(map[string]bool, len(saved))
	for _, sp := range saved {
		ids[sp.Paper.ID] = true
	}
	c.setState(func(s *State) { s.SavedPaperIDs = ids })
}

// LoadFolders refreshes the folder list for the picker. Failures are logged,
// never surfaced.
func (c *Coordinator) LoadFolders(ctx context.Context) {
	if !c.session.IsAuthenticated() {
		return
	}

	folders, err := c.client.GetFolders(ctx)
	if err != nil {
		log.Printf("search: load folders: %v", err)
		return
	}
	c.setState(func(s *State) { s.Folders = folders })
}

func cloneSet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
