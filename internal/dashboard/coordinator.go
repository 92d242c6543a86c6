// Package dashboard drives the saved-papers library: folder navigation,
// paged loading, local text filtering, and folder CRUD. Folder paper counts
// are always the server's numbers; the client never derives them.
package dashboard

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/papr-project/papr/internal/backend"
)

const (
	pageSize   = 10
	countBatch = 1000
)

// State is replaced wholesale on every transition. SavedPapers and Folders
// are copied on append so snapshots never alias live slices.
type State struct {
	Folders     []backend.Folder
	SavedPapers []backend.SavedPaper

	UncategorizedCount int
	TotalCount         int

	IsLoading        bool
	IsLoadingFolders bool
	Error            string

	SelectedFolder backend.FolderScope
	SearchQuery    string
	HasMore        bool

	// Add-folder workflow.
	ShowAddFolder bool
	NewFolderName string
}

// Coordinator owns the library screen's state.
type Coordinator struct {
	client *backend.Client
	notify func()

	mu    sync.Mutex
	state State
}

// New builds a dashboard coordinator scoped to all folders.
func New(client *backend.Client, notify func()) *Coordinator {
	return &Coordinator{
		client: client,
		notify: notify,
		state:  State{SelectedFolder: backend.AllFolders()},
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
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

// Folders returns the current folder list.
func (c *Coordinator) Folders() []backend.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Folders
}

// ClearError dismisses the error banner.
func (c *Coordinator) ClearError() {
	c.setState(func(s *State) { s.Error = "" })
}

// SetSearchQuery records the local filter text. No network: filtering is a
// pure derivation over already-loaded papers.
func (c *Coordinator) SetSearchQuery(query string) {
	c.setState(func(s *State) { s.SearchQuery = query })
}

// SetSelectedFolder switches the folder scope and unconditionally refreshes.
func (c *Coordinator) SetSelectedFolder(ctx context.Context, scope backend.FolderScope) {
	c.setState(func(s *State) { s.SelectedFolder = scope })
	c.LoadSavedPapers(ctx, true)
}

// LoadSavedPapers fetches a page in the current scope. refresh restarts at
// offset 0 and discards what is loaded; otherwise the next page is appended
// from offset len(current). HasMore is the page-exactly-full heuristic, so a
// remainder equal to the page size costs one empty fetch.
func (c *Coordinator) LoadSavedPapers(ctx context.Context, refresh bool) {
	c.mu.Lock()
	scope := c.state.SelectedFolder
	offset := 0
	if !refresh {
		offset = len(c.state.SavedPapers)
	}
	c.mu.Unlock()

	c.setState(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	page, err := c.client.GetSavedPapers(ctx, pageSize, offset, scope)
	if err != nil {
		c.setState(func(s *State) {
			s.IsLoading = false
			s.Error = err.Error()
		})
		return
	}

	c.setState(func(s *State) {
		s.IsLoading = false
		if refresh {
			s.SavedPapers = page
		} else {
			s.SavedPapers = append(append([]backend.SavedPaper{}, s.SavedPapers...), page...)
		}
		s.HasMore = len(page) == pageSize
	})
}

// LoadMore appends the next page. No-op while a load is in flight or when the
// last page came back short.
func (c *Coordinator) LoadMore(ctx context.Context) {
	c.mu.Lock()
	blocked := c.state.IsLoading || !c.state.HasMore
	c.mu.Unlock()
	if blocked {
		return
	}
	c.LoadSavedPapers(ctx, false)
}

// FilteredSavedPapers derives the visible list: a case-insensitive substring
// match over title, authors, abstract, venue, and year.
func (c *Coordinator) FilteredSavedPapers() []backend.SavedPaper {
	c.mu.Lock()
	papers := c.state.SavedPapers
	query := strings.ToLower(strings.TrimSpace(c.state.SearchQuery))
	c.mu.Unlock()

	if query == "" {
		return papers
	}
	matched := make([]backend.SavedPaper, 0, len(papers))
	for _, sp := range papers {
		if paperMatches(sp.Paper, query) {
			matched = append(matched, sp)
		}
	}
	return matched
}

func paperMatches(p backend.Paper, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Abstract), query) ||
		strings.Contains(strings.ToLower(p.Venue), query) ||
		strings.Contains(strconv.Itoa(p.Year), query) {
		return true
	}
	for _, author := range p.Authors {
		if strings.Contains(strings.ToLower(author), query) {
			return true
		}
	}
	return false
}

// LoadFolders refreshes the folder list and recomputes the uncategorized and
// total counts. The uncategorized count comes from a dedicated null-folder
// batch; totals are folder counts plus that batch.
func (c *Coordinator) LoadFolders(ctx context.Context) {
	c.setState(func(s *State) { s.IsLoadingFolders = true })

	folders, err := c.client.GetFolders(ctx)
	if err != nil {
		c.setState(func(s *State) {
			s.IsLoadingFolders = false
			s.Error = err.Error()
		})
		return
	}

	uncategorized, err := c.client.GetSavedPapers(ctx, countBatch, 0, backend.Uncategorized())
	if err != nil {
		log.Printf("dashboard: count uncategorized: %v", err)
		uncategorized = nil
	}

	total := len(uncategorized)
	for _, folder := range folders {
		total += folder.PaperCount
	}

	c.setState(func(s *State) {
		s.IsLoadingFolders = false
		s.Folders = folders
		s.UncategorizedCount = len(uncategorized)
		s.TotalCount = total
	})
}

// OpenAddFolder shows the add-folder workflow.
func (c *Coordinator) OpenAddFolder() {
	c.setState(func(s *State) { s.ShowAddFolder = true })
}

// CloseAddFolder dismisses the workflow and clears the typed name.
func (c *Coordinator) CloseAddFolder() {
	c.setState(func(s *State) {
		s.ShowAddFolder = false
		s.NewFolderName = ""
	})
}

// SetNewFolderName records the name typed into the workflow.
func (c *Coordinator) SetNewFolderName(name string) {
	c.setState(func(s *State) { s.NewFolderName = name })
}

// CreateFolder creates the folder named in the workflow. Blank is a no-op.
func (c *Coordinator) CreateFolder(ctx context.Context) {
	c.mu.Lock()
	name := strings.TrimSpace(c.state.NewFolderName)
	c.mu.Unlock()
	if name == "" {
		return
	}

	folder, err := c.client.CreateFolder(ctx, name)
	if err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.setState(func(s *State) {
		s.Folders = append(append([]backend.Folder{}, s.Folders...), *folder)
		s.ShowAddFolder = false
		s.NewFolderName = ""
	})
	c.LoadFolders(ctx)
}

// RenameFolder renames a folder remotely, then patches the local entry.
func (c *Coordinator) RenameFolder(ctx context.Context, folderID, name string) {
	updated, err := c.client.UpdateFolder(ctx, folderID, name)
	if err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.setState(func(s *State) {
		folders := append([]backend.Folder{}, s.Folders...)
		for i := range folders {
			if folders[i].ID == folderID {
				folders[i] = *updated
			}
		}
		s.Folders = folders
	})
}

// DeleteFolder removes the folder. Deleting the selected folder falls the
// selection back to "all" before papers reload; the server moves the folder's
// papers to uncategorized.
func (c *Coordinator) DeleteFolder(ctx context.Context, folderID string) {
	if _, err := c.client.DeleteFolder(ctx, folderID); err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.mu.Lock()
	selectedDeleted := c.state.SelectedFolder.FolderID() != nil &&
		*c.state.SelectedFolder.FolderID() == folderID
	c.mu.Unlock()

	c.setState(func(s *State) {
		kept := make([]backend.Folder, 0, len(s.Folders))
		for _, folder := range s.Folders {
			if folder.ID != folderID {
				kept = append(kept, folder)
			}
		}
		s.Folders = kept
		if selectedDeleted {
			s.SelectedFolder = backend.AllFolders()
		}
	})

	if selectedDeleted {
		c.LoadSavedPapers(ctx, true)
	}
	c.LoadFolders(ctx)
}

// MovePaperToFolder files a saved paper (by save-record ID) into a folder, or
// into uncategorized when folderID is nil. The record is patched in place;
// when the new location falls outside the current scope it leaves the list.
func (c *Coordinator) MovePaperToFolder(ctx context.Context, savedPaperID string, folderID *string) {
	c.mu.Lock()
	var paperID string
	for _, sp := range c.state.SavedPapers {
		if sp.ID == savedPaperID {
			paperID = sp.PaperID
			break
		}
	}
	scope := c.state.SelectedFolder
	c.mu.Unlock()
	if paperID == "" {
		return
	}

	updated, err := c.client.MovePaperToFolder(ctx, paperID, folderID)
	if err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	// The move mutation returns no paper data, so the existing record is
	// patched rather than replaced: only its folder assignment changes.
	c.setState(func(s *State) {
		papers := make([]backend.SavedPaper, 0, len(s.SavedPapers))
		for _, sp := range s.SavedPapers {
			if sp.ID != savedPaperID {
				papers = append(papers, sp)
				continue
			}
			sp.FolderID = updated.FolderID
			if scopeIncludes(scope, sp.FolderID) {
				papers = append(papers, sp)
			}
		}
		s.SavedPapers = papers
	})
	c.LoadFolders(ctx)
}

// UnsavePaper removes the paper from the library, pruning local records only
// after the remote call resolves.
func (c *Coordinator) UnsavePaper(ctx context.Context, paperID string) {
	if _, err := c.client.UnsavePaper(ctx, paperID); err != nil {
		c.setState(func(s *State) { s.Error = err.Error() })
		return
	}

	c.setState(func(s *State) {
		kept := make([]backend.SavedPaper, 0, len(s.SavedPapers))
		for _, sp := range s.SavedPapers {
			if sp.PaperID != paperID {
				kept = append(kept, sp)
			}
		}
		s.SavedPapers = kept
	})
	c.LoadFolders(ctx)
}

func scopeIncludes(scope backend.FolderScope, folderID *string) bool {
	switch {
	case scope.IsAll():
		return true
	case scope.IsUncategorized():
		return folderID == nil
	default:
		return folderID != nil && *folderID == *scope.FolderID()
	}
}
