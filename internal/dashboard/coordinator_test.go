package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/backendtest"
)

func seedPapers(fake *backendtest.Fake, n int, folderID *string) {
	for i := 0; i < n; i++ {
		fake.SeedSavedPaper(backend.Paper{
			ID:    fmt.Sprintf("p%d", i),
			Title: fmt.Sprintf("Paper %d", i),
		}, folderID)
	}
}

func TestLoadSavedPapersRefreshResetsOffset(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	seedPapers(fake, 4, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)
	coordinator.LoadSavedPapers(context.Background(), true)

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 4 {
		t.Fatalf("refresh duplicated papers: %d", len(state.SavedPapers))
	}
	if state.HasMore {
		t.Fatal("short page should clear hasMore")
	}

	var offset int
	_ = json.Unmarshal(fake.LastVariables["getSavedPapers"]["offset"], &offset)
	if offset != 0 {
		t.Fatalf("refresh offset = %d, want 0", offset)
	}
}

func TestLoadMoreAppendsNextPage(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	seedPapers(fake, 15, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)

	if state := coordinator.Snapshot(); len(state.SavedPapers) != 10 || !state.HasMore {
		t.Fatalf("first page: %d papers, hasMore=%v", len(state.SavedPapers), state.HasMore)
	}

	coordinator.LoadMore(context.Background())

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 15 {
		t.Fatalf("after load more: %d papers", len(state.SavedPapers))
	}
	if state.HasMore {
		t.Fatal("exhausted list still reports more")
	}

	var offset int
	_ = json.Unmarshal(fake.LastVariables["getSavedPapers"]["offset"], &offset)
	if offset != 10 {
		t.Fatalf("append offset = %d, want 10", offset)
	}
}

func TestHasMoreHeuristicOverreportsOnExactMultiple(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	seedPapers(fake, 10, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)

	// A remainder equal to the page size reads as "more available" until the
	// follow-up fetch comes back empty.
	if !coordinator.Snapshot().HasMore {
		t.Fatal("exactly full page should report more")
	}

	coordinator.LoadMore(context.Background())

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 10 || state.HasMore {
		t.Fatalf("empty follow-up page mishandled: %d papers, hasMore=%v",
			len(state.SavedPapers), state.HasMore)
	}
}

func TestLoadMoreNoOpWhenExhausted(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	seedPapers(fake, 3, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)
	before := fake.CallCount("getSavedPapers")

	coordinator.LoadMore(context.Background())

	if fake.CallCount("getSavedPapers") != before {
		t.Fatal("load more fetched past a short page")
	}
}

func TestSetSelectedFolderRefreshesWithScope(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("ML")
	fake.SeedSavedPaper(backend.Paper{ID: "in", Title: "In Folder"}, &folder.ID)
	fake.SeedSavedPaper(backend.Paper{ID: "out", Title: "Uncategorized"}, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.SetSelectedFolder(context.Background(), backend.InFolder(folder.ID))

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 1 || state.SavedPapers[0].PaperID != "in" {
		t.Fatalf("folder scope papers: %+v", state.SavedPapers)
	}

	coordinator.SetSelectedFolder(context.Background(), backend.Uncategorized())

	state = coordinator.Snapshot()
	if len(state.SavedPapers) != 1 || state.SavedPapers[0].PaperID != "out" {
		t.Fatalf("uncategorized scope papers: %+v", state.SavedPapers)
	}
}

func TestFilteredSavedPapersMatchesAcrossFields(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	fake.SeedSavedPaper(backend.Paper{
		ID: "p1", Title: "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani"}, Venue: "NeurIPS", Year: 2017,
	}, nil)
	fake.SeedSavedPaper(backend.Paper{
		ID: "p2", Title: "Deep Residual Learning",
		Authors: []string{"Kaiming He"}, Venue: "CVPR", Year: 2016,
	}, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)

	cases := []struct {
		query string
		want  string
	}{
		{"attention", "p1"},
		{"VASWANI", "p1"},
		{"cvpr", "p2"},
		{"2016", "p2"},
	}
	for _, tc := range cases {
		coordinator.SetSearchQuery(tc.query)
		got := coordinator.FilteredSavedPapers()
		if len(got) != 1 || got[0].PaperID != tc.want {
			t.Fatalf("query %q matched %+v, want %s", tc.query, got, tc.want)
		}
	}

	coordinator.SetSearchQuery("")
	if got := coordinator.FilteredSavedPapers(); len(got) != 2 {
		t.Fatalf("empty query filtered papers: %d", len(got))
	}
}

func TestLoadFoldersComputesCounts(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("ML")
	fake.SeedSavedPaper(backend.Paper{ID: "p1"}, &folder.ID)
	fake.SeedSavedPaper(backend.Paper{ID: "p2"}, &folder.ID)
	fake.SeedSavedPaper(backend.Paper{ID: "p3"}, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadFolders(context.Background())

	state := coordinator.Snapshot()
	if len(state.Folders) != 1 || state.Folders[0].PaperCount != 2 {
		t.Fatalf("folders = %+v", state.Folders)
	}
	if state.UncategorizedCount != 1 {
		t.Fatalf("uncategorized = %d", state.UncategorizedCount)
	}
	if state.TotalCount != 3 {
		t.Fatalf("total = %d", state.TotalCount)
	}
	if raw := fake.LastVariables["getSavedPapers"]["folderId"]; string(raw) != "null" {
		t.Fatalf("uncategorized count used folderId=%s, want null", raw)
	}
}

func TestCreateFolderTrimsAndAppends(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	coordinator := New(fake.Client(), nil)
	coordinator.OpenAddFolder()
	coordinator.SetNewFolderName("  Thesis  ")
	coordinator.CreateFolder(context.Background())

	state := coordinator.Snapshot()
	if state.ShowAddFolder || state.NewFolderName != "" {
		t.Fatalf("workflow not closed: %+v", state)
	}
	if fake.FolderByName("Thesis") == nil {
		t.Fatal("folder not created")
	}

	coordinator.SetNewFolderName("   ")
	before := fake.CallCount("createFolder")
	coordinator.CreateFolder(context.Background())
	if fake.CallCount("createFolder") != before {
		t.Fatal("blank folder name reached the network")
	}
}

func TestRenameFolderPatchesLocalEntry(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("Old Name")

	coordinator := New(fake.Client(), nil)
	coordinator.LoadFolders(context.Background())
	coordinator.RenameFolder(context.Background(), folder.ID, "New Name")

	state := coordinator.Snapshot()
	if len(state.Folders) != 1 || state.Folders[0].Name != "New Name" {
		t.Fatalf("folders = %+v", state.Folders)
	}
}

func TestDeleteSelectedFolderFallsBackToAll(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("Doomed")
	fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "Orphan"}, &folder.ID)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadFolders(context.Background())
	coordinator.SetSelectedFolder(context.Background(), backend.InFolder(folder.ID))
	coordinator.DeleteFolder(context.Background(), folder.ID)

	state := coordinator.Snapshot()
	if !state.SelectedFolder.IsAll() {
		t.Fatal("selection did not fall back to all")
	}
	if len(state.Folders) != 0 {
		t.Fatalf("folder survived delete: %+v", state.Folders)
	}
	// The orphaned paper is now uncategorized and visible in the all scope.
	if len(state.SavedPapers) != 1 || state.SavedPapers[0].FolderID != nil {
		t.Fatalf("papers after delete: %+v", state.SavedPapers)
	}
}

func TestMovePaperToFolderLeavesScopedList(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("ML")
	sp := fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "Mover"}, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.SetSelectedFolder(context.Background(), backend.Uncategorized())
	if len(coordinator.Snapshot().SavedPapers) != 1 {
		t.Fatal("paper not loaded in uncategorized scope")
	}

	coordinator.MovePaperToFolder(context.Background(), sp.ID, &folder.ID)

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 0 {
		t.Fatalf("moved paper still in uncategorized list: %+v", state.SavedPapers)
	}
	if got := fake.FolderByName("ML"); got == nil || got.PaperCount != 1 {
		t.Fatalf("folder count after move: %+v", got)
	}
}

func TestMovePaperToFolderPatchesInAllScope(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("ML")
	sp := fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "Mover"}, nil)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)
	coordinator.MovePaperToFolder(context.Background(), sp.ID, &folder.ID)

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 1 {
		t.Fatalf("paper left the all-scope list: %+v", state.SavedPapers)
	}
	if state.SavedPapers[0].FolderID == nil || *state.SavedPapers[0].FolderID != folder.ID {
		t.Fatalf("record not patched: %+v", state.SavedPapers[0])
	}
	// The move mutation returns no paper data; the existing record's paper
	// must survive the patch.
	if state.SavedPapers[0].Paper.Title != "Mover" {
		t.Fatalf("paper data lost after move: %+v", state.SavedPapers[0].Paper)
	}
}

func TestUnsavePaperPrunesAndRecounts(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	folder := fake.SeedFolder("ML")
	fake.SeedSavedPaper(backend.Paper{ID: "p1", Title: "Removed"}, &folder.ID)
	fake.SeedSavedPaper(backend.Paper{ID: "p2", Title: "Kept"}, &folder.ID)

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)
	coordinator.UnsavePaper(context.Background(), "p1")

	state := coordinator.Snapshot()
	if len(state.SavedPapers) != 1 || state.SavedPapers[0].PaperID != "p2" {
		t.Fatalf("papers after unsave: %+v", state.SavedPapers)
	}
	if got := fake.FolderByName("ML"); got.PaperCount != 1 {
		t.Fatalf("folder count after unsave: %d", got.PaperCount)
	}
	if state.TotalCount != 1 {
		t.Fatalf("total after unsave: %d", state.TotalCount)
	}
}

func TestRemoteFailureSurfacesError(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	fake.FailOps["getSavedPapers"] = "database unavailable"

	coordinator := New(fake.Client(), nil)
	coordinator.LoadSavedPapers(context.Background(), true)

	state := coordinator.Snapshot()
	if state.Error != "database unavailable" {
		t.Fatalf("error = %q", state.Error)
	}
	if state.IsLoading {
		t.Fatal("loading flag not cleared")
	}
}
