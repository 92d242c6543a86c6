package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papr-project/papr/internal/auth"
	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/backendtest"
	"github.com/papr-project/papr/internal/citation"
	"github.com/papr-project/papr/internal/dashboard"
	"github.com/papr-project/papr/internal/search"
	"github.com/papr-project/papr/internal/token"
)

type fixture struct {
	fake  *backendtest.Fake
	model *model
}

func newTestModel(t *testing.T, authenticated bool) *fixture {
	t.Helper()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	client := fake.Client()
	store := token.NewStore(filepath.Join(t.TempDir(), "token"))
	session := auth.New(client, store, nil)
	if authenticated {
		payload := &backend.AuthPayload{Token: backendtest.ValidToken, User: fake.User}
		if err := session.AcceptSession(payload); err != nil {
			t.Fatalf("accept session: %v", err)
		}
	}

	config := Config{
		Backend:   client,
		Session:   session,
		Form:      auth.NewForm(client, session, auth.ModeLogin, nil),
		Search:    search.New(client, session, nil),
		Dashboard: dashboard.New(client, nil),
		Citations: citation.New(nil),
	}
	m, ok := New(config).(*model)
	if !ok {
		t.Fatal("New did not return *model")
	}
	return &fixture{fake: fake, model: m}
}

func (f *fixture) search(t *testing.T, query string) {
	t.Helper()
	f.model.config.Search.SetQuery(query)
	f.model.config.Search.PerformSearch(context.Background())
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestSearchViewCountsResults(t *testing.T) {
	f := newTestModel(t, false)
	f.fake.SearchResults["transformers"] = &backend.SearchResult{
		Papers: []backend.Paper{
			{ID: "p1", Title: "Attention Is All You Need", Year: 2017},
			{ID: "p2", Title: "BERT", Year: 2019},
		},
		Total: 2,
	}
	f.search(t, "transformers")

	view := f.model.View()
	if !strings.Contains(view, "2 papers found") {
		t.Fatalf("results header missing:\n%s", view)
	}
	if !strings.Contains(view, "Attention Is All You Need") {
		t.Fatalf("result title missing:\n%s", view)
	}
}

func TestTLDRToggleShowsInlinePanel(t *testing.T) {
	f := newTestModel(t, false)
	f.fake.SearchResults["q"] = &backend.SearchResult{
		Papers: []backend.Paper{{
			ID:    "p1",
			Title: "Paper With TLDR",
			Tldr:  &backend.Tldr{Text: "One-sentence machine summary."},
		}},
		Total: 1,
	}
	f.search(t, "q")

	if view := f.model.View(); strings.Contains(view, "One-sentence machine summary.") {
		t.Fatal("TLDR visible before toggle")
	}

	f.model.handleKey(key(tea.KeyCtrlO))
	if view := f.model.View(); !strings.Contains(view, "One-sentence machine summary.") {
		t.Fatalf("TLDR not shown after toggle:\n%s", view)
	}

	f.model.handleKey(key(tea.KeyCtrlO))
	if view := f.model.View(); strings.Contains(view, "One-sentence machine summary.") {
		t.Fatal("TLDR still visible after second toggle")
	}
}

func TestOpenFallsBackToURLWithoutTLDR(t *testing.T) {
	f := newTestModel(t, false)
	var opened string
	f.model.config.OpenURL = func(url string) error {
		opened = url
		return nil
	}
	f.fake.SearchResults["q"] = &backend.SearchResult{
		Papers: []backend.Paper{{ID: "p1", Title: "No TLDR", URL: "https://example.org/p1"}},
		Total:  1,
	}
	f.search(t, "q")

	f.model.handleKey(key(tea.KeyCtrlO))
	if opened != "https://example.org/p1" {
		t.Fatalf("opened %q", opened)
	}
}

func TestSaveOpensFolderPicker(t *testing.T) {
	f := newTestModel(t, true)
	f.fake.SearchResults["q"] = &backend.SearchResult{
		Papers: []backend.Paper{{ID: "p1", Title: "Saveable"}},
		Total:  1,
	}
	f.fake.SeedFolder("Reading List")
	f.model.config.Search.LoadFolders(context.Background())
	f.search(t, "q")

	f.model.handleKey(key(tea.KeyCtrlS))

	if !f.model.config.Search.Snapshot().ShowFolderPicker {
		t.Fatal("picker did not open")
	}
	view := f.model.View()
	if !strings.Contains(view, "Save to folder") || !strings.Contains(view, "Uncategorized") {
		t.Fatalf("picker not rendered:\n%s", view)
	}
	if !strings.Contains(view, "Reading List (0)") {
		t.Fatalf("folder option missing:\n%s", view)
	}
}

func TestSaveWithoutSessionShowsLoginError(t *testing.T) {
	f := newTestModel(t, false)
	f.fake.SearchResults["q"] = &backend.SearchResult{
		Papers: []backend.Paper{{ID: "p1", Title: "Saveable"}},
		Total:  1,
	}
	f.search(t, "q")

	f.model.handleKey(key(tea.KeyCtrlS))

	if view := f.model.View(); !strings.Contains(view, "Please log in to save papers") {
		t.Fatalf("login error missing:\n%s", view)
	}
}

func TestSavedMarkerRendered(t *testing.T) {
	f := newTestModel(t, true)
	f.fake.SearchResults["q"] = &backend.SearchResult{
		Papers: []backend.Paper{{ID: "p1", Title: "Already Saved"}},
		Total:  1,
	}
	f.fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "Already Saved"}, nil)
	f.model.config.Search.LoadSavedPaperIDs(context.Background())
	f.search(t, "q")

	if view := f.model.View(); !strings.Contains(view, "✔") {
		t.Fatalf("saved marker missing:\n%s", view)
	}
}

func TestAuthFormRendersFieldErrors(t *testing.T) {
	f := newTestModel(t, false)
	f.model.handleKey(key(tea.KeyCtrlA))
	if f.model.stage != stageAuth {
		t.Fatalf("stage = %v", f.model.stage)
	}

	f.model.config.Form.Submit(context.Background())

	view := f.model.View()
	if !strings.Contains(view, "Email is required") || !strings.Contains(view, "Password is required") {
		t.Fatalf("field errors missing:\n%s", view)
	}
}

func TestCitationPopupCapturesKeys(t *testing.T) {
	f := newTestModel(t, true)
	f.model.stage = stageLibrary
	f.model.config.Citations.OpenPopup([]backend.SavedPaper{
		{ID: "s1", PaperID: "p1", Paper: backend.Paper{ID: "p1", Title: "Cited"}},
	})

	view := f.model.View()
	if !strings.Contains(view, "Cite 1 papers") || !strings.Contains(view, "APA Style") {
		t.Fatalf("citation popup missing:\n%s", view)
	}

	f.model.handleKey(key(tea.KeyRight))
	if got := f.model.config.Citations.Snapshot().SelectedFormat; got != citation.FormatMLA {
		t.Fatalf("format after right = %s", got)
	}

	f.model.handleKey(key(tea.KeyEsc))
	if f.model.config.Citations.Snapshot().IsOpen {
		t.Fatal("popup still open after esc")
	}
}

func TestLibraryFolderStripShowsCounts(t *testing.T) {
	f := newTestModel(t, true)
	folder := f.fake.SeedFolder("ML")
	f.fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "In ML"}, &folder.ID)
	f.fake.SeedSavedPaper(backend.Paper{ID: "p2", Title: "Loose"}, nil)

	f.model.config.Dashboard.LoadFolders(context.Background())
	f.model.config.Dashboard.LoadSavedPapers(context.Background(), true)
	f.model.handleKey(key(tea.KeyCtrlL))

	view := f.model.View()
	if !strings.Contains(view, "All (2)") {
		t.Fatalf("total count missing:\n%s", view)
	}
	if !strings.Contains(view, "Uncategorized (1)") {
		t.Fatalf("uncategorized count missing:\n%s", view)
	}
	if !strings.Contains(view, "ML (1)") {
		t.Fatalf("folder count missing:\n%s", view)
	}
}

func TestThemeToggleWithoutEndpoint(t *testing.T) {
	f := newTestModel(t, false)
	if f.model.theme != "dark" {
		t.Fatalf("default theme = %q", f.model.theme)
	}

	f.model.handleKey(key(tea.KeyCtrlT))
	if f.model.theme != "light" {
		t.Fatalf("theme after toggle = %q", f.model.theme)
	}

	f.model.handleKey(key(tea.KeyCtrlT))
	if f.model.theme != "dark" {
		t.Fatalf("theme after second toggle = %q", f.model.theme)
	}
}

func TestLatePreviewResultIsDropped(t *testing.T) {
	f := newTestModel(t, false)
	f.model.stage = stageSearch

	f.model.Update(previewResultMsg{paperID: "p9", title: "Stale", text: "late text"})

	if f.model.previewTitle == "Stale" {
		t.Fatal("late preview result applied after navigation")
	}
}
