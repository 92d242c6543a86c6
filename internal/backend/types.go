package backend

// Tldr is a short machine-generated summary attached to some papers.
type Tldr struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Paper is a bibliographic record as returned by the backend. Immutable once
// fetched; identity is ID.
type Paper struct {
	ID                string   `json:"id"`
	SemanticScholarID string   `json:"semanticScholarId,omitempty"`
	Title             string   `json:"title"`
	Authors           []string `json:"authors"`
	Abstract          string   `json:"abstract,omitempty"`
	Year              int      `json:"year,omitempty"`
	Venue             string   `json:"venue,omitempty"`
	URL               string   `json:"url,omitempty"`
	CitationCount     int      `json:"citationCount,omitempty"`
	Tldr              *Tldr    `json:"tldr,omitempty"`
}

// SavedPaper joins a user to a paper, optionally filed into a folder. ID is
// the save record's own identity, distinct from PaperID.
type SavedPaper struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	PaperID   string   `json:"paperId"`
	FolderID  *string  `json:"folderId,omitempty"`
	Paper     Paper    `json:"paper"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
}

// Folder is a named, user-owned grouping of saved papers. PaperCount is
// server-computed; clients never derive it from a local SavedPaper list.
type Folder struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	Name       string       `json:"name"`
	PaperCount int          `json:"paperCount"`
	Papers     []SavedPaper `json:"papers,omitempty"`
	CreatedAt  string       `json:"createdAt"`
	UpdatedAt  string       `json:"updatedAt"`
}

// SearchResult is one page of a paper search.
type SearchResult struct {
	Papers []Paper `json:"papers"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   *int    `json:"next,omitempty"`
}

// User is the identity record owned by the auth coordinator.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// AuthPayload is returned by the register and login mutations.
type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// FolderScope selects which saved papers a query covers. The backend
// distinguishes three cases: folderId omitted entirely (all papers), folderId
// null (uncategorized only), and folderId set (one folder).
type FolderScope struct {
	filtered bool
	id       *string
}

// AllFolders requests every saved paper regardless of folder.
func AllFolders() FolderScope { return FolderScope{} }

// Uncategorized requests only papers with no folder assignment.
func Uncategorized() FolderScope { return FolderScope{filtered: true} }

// InFolder requests papers filed into the given folder.
func InFolder(id string) FolderScope { return FolderScope{filtered: true, id: &id} }

// IsAll reports whether the scope covers every folder.
func (s FolderScope) IsAll() bool { return !s.filtered }

// IsUncategorized reports whether the scope covers only unfiled papers.
func (s FolderScope) IsUncategorized() bool { return s.filtered && s.id == nil }

// FolderID returns the targeted folder's ID, or nil when the scope covers
// all folders or only uncategorized papers.
func (s FolderScope) FolderID() *string {
	if !s.filtered {
		return nil
	}
	return s.id
}

// apply writes the folderId variable, omitting the key for the all scope.
func (s FolderScope) apply(variables map[string]any) {
	if !s.filtered {
		return
	}
	if s.id == nil {
		variables["folderId"] = nil
		return
	}
	variables["folderId"] = *s.id
}
