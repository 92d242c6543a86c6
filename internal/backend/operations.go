package backend

import "context"

// GraphQL documents. The schema is a fixed external contract; these mirror it
// exactly and are never assembled dynamically.
const (
	searchPapersQuery = `
  query SearchPapers($query: String!, $limit: Int = 10, $offset: Int = 0) {
    searchPapers(query: $query, limit: $limit, offset: $offset) {
      papers {
        id
        semanticScholarId
        title
        authors
        abstract
        year
        venue
        url
        citationCount
        tldr {
          model
          text
        }
      }
      total
      offset
      next
    }
  }`

	savePaperMutation = `
  mutation SavePaper($input: SavePaperInput!) {
    savePaper(input: $input) {
      id
      userId
      paperId
      folderId
      paper {
        id
        title
        authors
        abstract
        year
        venue
        url
        citationCount
      }
      notes
      tags
      createdAt
    }
  }`

	unsavePaperMutation = `
  mutation UnsavePaper($paperId: ID!) {
    unsavePaper(paperId: $paperId)
  }`

	getSavedPapersQuery = `
  query GetSavedPapers($limit: Int = 10, $offset: Int = 0, $folderId: ID) {
    getSavedPapers(limit: $limit, offset: $offset, folderId: $folderId) {
      id
      userId
      paperId
      folderId
      paper {
        id
        semanticScholarId
        title
        authors
        abstract
        year
        venue
        url
        citationCount
        tldr {
          model
          text
        }
      }
      notes
      tags
      createdAt
    }
  }`

	getFoldersQuery = `
  query GetFolders {
    getFolders {
      id
      userId
      name
      paperCount
      createdAt
      updatedAt
    }
  }`

	createFolderMutation = `
  mutation CreateFolder($input: CreateFolderInput!) {
    createFolder(input: $input) {
      id
      userId
      name
      paperCount
      createdAt
      updatedAt
    }
  }`

	updateFolderMutation = `
  mutation UpdateFolder($id: ID!, $input: UpdateFolderInput!) {
    updateFolder(id: $id, input: $input) {
      id
      userId
      name
      paperCount
      createdAt
      updatedAt
    }
  }`

	deleteFolderMutation = `
  mutation DeleteFolder($id: ID!) {
    deleteFolder(id: $id)
  }`

	movePaperToFolderMutation = `
  mutation MovePaperToFolder($paperId: ID!, $folderId: ID) {
    movePaperToFolder(paperId: $paperId, folderId: $folderId) {
      id
      userId
      paperId
      folderId
      notes
      tags
      createdAt
    }
  }`

	registerMutation = `
  mutation Register($input: RegisterInput!) {
    register(input: $input) {
      token
      user {
        id
        email
        username
        thumbnailUrl
        createdAt
        updatedAt
      }
    }
  }`

	loginMutation = `
  mutation Login($input: LoginInput!) {
    login(input: $input) {
      token
      user {
        id
        email
        username
        thumbnailUrl
        createdAt
        updatedAt
      }
    }
  }`

	currentUserQuery = `
  query GetCurrentUser {
    me {
      id
      email
      username
      thumbnailUrl
      createdAt
      updatedAt
    }
  }`
)

// SearchPapers runs a paged free-text search.
func (c *Client) SearchPapers(ctx context.Context, query string, limit, offset int) (*SearchResult, error) {
	var out struct {
		SearchPapers SearchResult `json:"searchPapers"`
	}
	err := c.query(ctx, Request{
		Query: searchPapersQuery,
		Variables: map[string]any{
			"query":  query,
			"limit":  limit,
			"offset": offset,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.SearchPapers, nil
}

// SavePaper bookmarks a paper for the current user.
func (c *Client) SavePaper(ctx context.Context, paperID, notes string, tags []string) (*SavedPaper, error) {
	if tags == nil {
		tags = []string{}
	}
	var out struct {
		SavePaper SavedPaper `json:"savePaper"`
	}
	err := c.query(ctx, Request{
		Query: savePaperMutation,
		Variables: map[string]any{
			"input": map[string]any{"paperId": paperID, "notes": notes, "tags": tags},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.SavePaper, nil
}

// UnsavePaper removes a bookmark by paper ID.
func (c *Client) UnsavePaper(ctx context.Context, paperID string) (bool, error) {
	var out struct {
		UnsavePaper bool `json:"unsavePaper"`
	}
	err := c.query(ctx, Request{
		Query:     unsavePaperMutation,
		Variables: map[string]any{"paperId": paperID},
	}, &out)
	if err != nil {
		return false, err
	}
	return out.UnsavePaper, nil
}

// GetSavedPapers returns one page of the user's saved papers within scope.
func (c *Client) GetSavedPapers(ctx context.Context, limit, offset int, scope FolderScope) ([]SavedPaper, error) {
	variables := map[string]any{
		"limit":  limit,
		"offset": offset,
	}
	scope.apply(variables)

	var out struct {
		GetSavedPapers []SavedPaper `json:"getSavedPapers"`
	}
	err := c.query(ctx, Request{Query: getSavedPapersQuery, Variables: variables}, &out)
	if err != nil {
		return nil, err
	}
	return out.GetSavedPapers, nil
}

// GetFolders returns all folders owned by the current user.
func (c *Client) GetFolders(ctx context.Context) ([]Folder, error) {
	var out struct {
		GetFolders []Folder `json:"getFolders"`
	}
	if err := c.query(ctx, Request{Query: getFoldersQuery}, &out); err != nil {
		return nil, err
	}
	return out.GetFolders, nil
}

// CreateFolder creates a named folder.
func (c *Client) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	var out struct {
		CreateFolder Folder `json:"createFolder"`
	}
	err := c.query(ctx, Request{
		Query:     createFolderMutation,
		Variables: map[string]any{"input": map[string]any{"name": name}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.CreateFolder, nil
}

// UpdateFolder renames a folder.
func (c *Client) UpdateFolder(ctx context.Context, id, name string) (*Folder, error) {
	var out struct {
		UpdateFolder Folder `json:"updateFolder"`
	}
	err := c.query(ctx, Request{
		Query: updateFolderMutation,
		Variables: map[string]any{
			"id":    id,
			"input": map[string]any{"name": name},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.UpdateFolder, nil
}

// DeleteFolder removes a folder; its papers fall back to uncategorized.
func (c *Client) DeleteFolder(ctx context.Context, id string) (bool, error) {
	var out struct {
		DeleteFolder bool `json:"deleteFolder"`
	}
	err := c.query(ctx, Request{
		Query:     deleteFolderMutation,
		Variables: map[string]any{"id": id},
	}, &out)
	if err != nil {
		return false, err
	}
	return out.DeleteFolder, nil
}

// MovePaperToFolder files a saved paper into a folder, or into uncategorized
// when folderID is nil. The argument is the paper ID, not the save-record ID.
func (c *Client) MovePaperToFolder(ctx context.Context, paperID string, folderID *string) (*SavedPaper, error) {
	variables := map[string]any{"paperId": paperID}
	if folderID != nil {
		variables["folderId"] = *folderID
	} else {
		variables["folderId"] = nil
	}

	var out struct {
		MovePaperToFolder SavedPaper `json:"movePaperToFolder"`
	}
	err := c.query(ctx, Request{Query: movePaperToFolderMutation, Variables: variables}, &out)
	if err != nil {
		return nil, err
	}
	return &out.MovePaperToFolder, nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthPayload, error) {
	var out struct {
		Register AuthPayload `json:"register"`
	}
	err := c.query(ctx, Request{
		Query: registerMutation,
		Variables: map[string]any{
			"input": map[string]any{"username": username, "email": email, "password": password},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Register, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	var out struct {
		Login AuthPayload `json:"login"`
	}
	err := c.query(ctx, Request{
		Query: loginMutation,
		Variables: map[string]any{
			"input": map[string]any{"email": email, "password": password},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Login, nil
}

// CurrentUser resolves the identity behind the installed bearer token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out struct {
		Me User `json:"me"`
	}
	if err := c.query(ctx, Request{Query: currentUserQuery}, &out); err != nil {
		return nil, err
	}
	return &out.Me, nil
}
