// Package backendtest runs an in-memory stand-in for the Papr GraphQL
// backend. It keeps just enough mutable state (saved papers, folders, one
// user) for coordinator tests to exercise full round trips.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/papr-project/papr/internal/backend"
)

// ValidToken is the bearer token the fake accepts for the me query.
const ValidToken = "fake-backend-token"

// Fake is a stateful GraphQL backend double.
type Fake struct {
	mu sync.Mutex

	server *httptest.Server

	User          backend.User
	SearchResults map[string]*backend.SearchResult
	SavedPapers   []backend.SavedPaper
	Folders       []backend.Folder

	// FailOps forces the named operations to answer with a GraphQL error.
	FailOps map[string]string

	// Calls counts requests per operation; LastVariables records the raw
	// variables of the most recent request per operation.
	Calls         map[string]int
	LastVariables map[string]map[string]json.RawMessage

	nextID int
}

// New starts the fake. Callers own Close via t.Cleanup.
func New() *Fake {
	f := &Fake{
		User: backend.User{
			ID:       "user-1",
			Email:    "ada@example.com",
			Username: "ada",
		},
		SearchResults: map[string]*backend.SearchResult{},
		FailOps:       map[string]string{},
		Calls:         map[string]int{},
		LastVariables: map[string]map[string]json.RawMessage{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL returns the GraphQL endpoint URL.
func (f *Fake) URL() string { return f.server.URL }

// Close shuts the fake down.
func (f *Fake) Close() { f.server.Close() }

// Client returns a backend client pointed at the fake.
func (f *Fake) Client() *backend.Client {
	return backend.New(backend.Config{
		Endpoint:   f.server.URL,
		APIBase:    f.server.URL,
		HTTPClient: f.server.Client(),
	})
}

// CallCount returns how many requests hit the named operation.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// FolderByName finds a folder by name, or nil.
func (f *Fake) FolderByName(name string) *backend.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Folders {
		if f.Folders[i].Name == name {
			folder := f.Folders[i]
			return &folder
		}
	}
	return nil
}

// SeedSavedPaper files a saved paper directly into the fake's state.
func (f *Fake) SeedSavedPaper(paper backend.Paper, folderID *string) backend.SavedPaper {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp := backend.SavedPaper{
		ID:        f.id("save"),
		UserID:    f.User.ID,
		PaperID:   paper.ID,
		FolderID:  folderID,
		Paper:     paper,
		Tags:      []string{},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	f.SavedPapers = append(f.SavedPapers, sp)
	f.recountLocked()
	return sp
}

// SeedFolder creates a folder directly.
func (f *Fake) SeedFolder(name string) backend.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addFolderLocked(name)
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) addFolderLocked(name string) backend.Folder {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	folder := backend.Folder{
		ID:        f.id("folder"),
		UserID:    f.User.ID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Folders = append(f.Folders, folder)
	return folder
}

func (f *Fake) recountLocked() {
	for i := range f.Folders {
		count := 0
		for _, sp := range f.SavedPapers {
			if sp.FolderID != nil && *sp.FolderID == f.Folders[i].ID {
				count++
			}
		}
		if count != f.Folders[i].PaperCount {
			f.Folders[i].PaperCount = count
			f.Folders[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
		}
	}
}

type wireRequest struct {
	Query     string                     `json:"query"`
	Variables map[string]json.RawMessage `json:"variables"`
}

func (f *Fake) handle(w http.ResponseWriter, r *http.Request) {
	var req wireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	op := detectOperation(req.Query)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls[op]++
	f.LastVariables[op] = req.Variables

	if msg, ok := f.FailOps[op]; ok {
		writeErrors(w, msg)
		return
	}

	switch op {
	case "searchPapers":
		var query string
		unmarshalVar(req.Variables, "query", &query)
		result, ok := f.SearchResults[query]
		if !ok {
			result = &backend.SearchResult{Papers: []backend.Paper{}}
		}
		writeData(w, map[string]any{"searchPapers": result})

	case "getFolders":
		folders := f.Folders
		if folders == nil {
			folders = []backend.Folder{}
		}
		writeData(w, map[string]any{"getFolders": folders})

	case "createFolder":
		var input struct {
			Name string `json:"name"`
		}
		unmarshalVar(req.Variables, "input", &input)
		folder := f.addFolderLocked(input.Name)
		writeData(w, map[string]any{"createFolder": folder})

	case "updateFolder":
		var id string
		var input struct {
			Name string `json:"name"`
		}
		unmarshalVar(req.Variables, "id", &id)
		unmarshalVar(req.Variables, "input", &input)
		for i := range f.Folders {
			if f.Folders[i].ID == id {
				f.Folders[i].Name = input.Name
				f.Folders[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
				writeData(w, map[string]any{"updateFolder": f.Folders[i]})
				return
			}
		}
		writeErrors(w, "Folder not found")

	case "deleteFolder":
		var id string
		unmarshalVar(req.Variables, "id", &id)
		kept := f.Folders[:0]
		for _, folder := range f.Folders {
			if folder.ID != id {
				kept = append(kept, folder)
			}
		}
		f.Folders = kept
		for i := range f.SavedPapers {
			if f.SavedPapers[i].FolderID != nil && *f.SavedPapers[i].FolderID == id {
				f.SavedPapers[i].FolderID = nil
			}
		}
		writeData(w, map[string]any{"deleteFolder": true})

	case "unsavePaper":
		var paperID string
		unmarshalVar(req.Variables, "paperId", &paperID)
		kept := f.SavedPapers[:0]
		removed := false
		for _, sp := range f.SavedPapers {
			if sp.PaperID == paperID {
				removed = true
				continue
			}
			kept = append(kept, sp)
		}
		f.SavedPapers = kept
		f.recountLocked()
		writeData(w, map[string]any{"unsavePaper": removed})

	case "savePaper":
		var input struct {
			PaperID string   `json:"paperId"`
			Notes   string   `json:"notes"`
			Tags    []string `json:"tags"`
		}
		unmarshalVar(req.Variables, "input", &input)
		paper := f.lookupPaperLocked(input.PaperID)
		sp := backend.SavedPaper{
			ID:        f.id("save"),
			UserID:    f.User.ID,
			PaperID:   input.PaperID,
			Paper:     paper,
			Notes:     input.Notes,
			Tags:      input.Tags,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		f.SavedPapers = append(f.SavedPapers, sp)
		f.recountLocked()
		writeData(w, map[string]any{"savePaper": sp})

	case "movePaperToFolder":
		var paperID string
		unmarshalVar(req.Variables, "paperId", &paperID)
		var folderID *string
		if raw, ok := req.Variables["folderId"]; ok && string(raw) != "null" {
			var id string
			if err := json.Unmarshal(raw, &id); err == nil {
				folderID = &id
			}
		}
		for i := range f.SavedPapers {
			if f.SavedPapers[i].PaperID == paperID {
				f.SavedPapers[i].FolderID = folderID
				f.recountLocked()
				// The mutation's selection set has no paper field, so the
				// response omits it like a real server would.
				moved := f.SavedPapers[i]
				writeData(w, map[string]any{"movePaperToFolder": map[string]any{
					"id":        moved.ID,
					"userId":    moved.UserID,
					"paperId":   moved.PaperID,
					"folderId":  moved.FolderID,
					"notes":     moved.Notes,
					"tags":      moved.Tags,
					"createdAt": moved.CreatedAt,
				}})
				return
			}
		}
		writeErrors(w, "Saved paper not found")

	case "getSavedPapers":
		limit, offset := 10, 0
		unmarshalVar(req.Variables, "limit", &limit)
		unmarshalVar(req.Variables, "offset", &offset)
		matched := f.filterSavedLocked(req.Variables)
		page := paginate(matched, limit, offset)
		writeData(w, map[string]any{"getSavedPapers": page})

	case "me":
		if r.Header.Get("Authorization") != "Bearer "+ValidToken {
			writeErrors(w, "Invalid token")
			return
		}
		writeData(w, map[string]any{"me": f.User})

	case "login", "register":
		writeData(w, map[string]any{op: backend.AuthPayload{Token: ValidToken, User: f.User}})

	default:
		writeErrors(w, "Unknown operation")
	}
}

func (f *Fake) lookupPaperLocked(paperID string) backend.Paper {
	for _, result := range f.SearchResults {
		for _, paper := range result.Papers {
			if paper.ID == paperID {
				return paper
			}
		}
	}
	return backend.Paper{ID: paperID, Title: "Paper " + paperID, Authors: []string{}}
}

// filterSavedLocked honors the three-valued folder filter: key absent means
// all papers, null means uncategorized, a string means one folder.
func (f *Fake) filterSavedLocked(variables map[string]json.RawMessage) []backend.SavedPaper {
	raw, present := variables["folderId"]
	matched := make([]backend.SavedPaper, 0, len(f.SavedPapers))
	for _, sp := range f.SavedPapers {
		switch {
		case !present:
			matched = append(matched, sp)
		case string(raw) == "null":
			if sp.FolderID == nil {
				matched = append(matched, sp)
			}
		default:
			var id string
			if json.Unmarshal(raw, &id) == nil && sp.FolderID != nil && *sp.FolderID == id {
				matched = append(matched, sp)
			}
		}
	}
	return matched
}

func paginate(papers []backend.SavedPaper, limit, offset int) []backend.SavedPaper {
	if offset >= len(papers) {
		return []backend.SavedPaper{}
	}
	end := offset + limit
	if end > len(papers) {
		end = len(papers)
	}
	return papers[offset:end]
}

func unmarshalVar(variables map[string]json.RawMessage, key string, out any) {
	if raw, ok := variables[key]; ok {
		_ = json.Unmarshal(raw, out)
	}
}

// detectOperation keys off the operation field name in the document. Longer
// names are matched first so savePaper does not shadow unsavePaper.
func detectOperation(query string) string {
	for _, op := range []string{
		"getSavedPapers",
		"movePaperToFolder",
		"unsavePaper",
		"savePaper",
		"searchPapers",
		"getFolders",
		"createFolder",
		"updateFolder",
		"deleteFolder",
		"register",
		"login",
		"me",
	} {
		if strings.Contains(query, op+"(") || strings.Contains(query, op+" {") || strings.Contains(query, op+"\n") {
			return op
		}
	}
	return "unknown"
}

func writeData(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{"message": message}},
	})
}
