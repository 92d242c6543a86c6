package foldersync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/papr-project/papr/internal/backend"
)

// fakeSide is a Side with a scripted folder list. LoadFolders copies the
// sibling's list, mimicking both coordinators fetching the same backend.
type fakeSide struct {
	mu      sync.Mutex
	folders []backend.Folder
	source  func() []backend.Folder
	reloads int
}

func (f *fakeSide) Folders() []backend.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folders
}

func (f *fakeSide) LoadFolders(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	if f.source != nil {
		f.folders = f.source()
	}
}

func (f *fakeSide) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func (f *fakeSide) set(folders []backend.Folder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folders = folders
}

func folder(id string, count int, updatedAt string) backend.Folder {
	return backend.Folder{ID: id, PaperCount: count, UpdatedAt: updatedAt}
}

func TestDigestIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := []backend.Folder{folder("f1", 2, "t1"), folder("f2", 0, "t2")}
	b := []backend.Folder{folder("f2", 0, "t2"), folder("f1", 2, "t1")}
	if Digest(a) != Digest(b) {
		t.Fatal("ordering moved the digest")
	}
}

func TestDigestTracksCountAndTimestamp(t *testing.T) {
	t.Parallel()

	base := []backend.Folder{folder("f1", 2, "t1")}
	if Digest(base) == Digest([]backend.Folder{folder("f1", 3, "t1")}) {
		t.Fatal("count change missed")
	}
	if Digest(base) == Digest([]backend.Folder{folder("f1", 2, "t9")}) {
		t.Fatal("timestamp change missed")
	}
	if Digest(base) == Digest(nil) {
		t.Fatal("membership change missed")
	}
}

func TestSyncNowReloadsOppositeSide(t *testing.T) {
	t.Parallel()

	fresh := []backend.Folder{folder("f1", 1, "t2")}
	search := &fakeSide{folders: fresh}
	dashboard := &fakeSide{folders: []backend.Folder{folder("f1", 0, "t1")}}
	dashboard.source = func() []backend.Folder { return fresh }

	syncer := New(search, dashboard)
	syncer.SyncNow(context.Background(), FromSearch)

	if dashboard.reloadCount() != 1 {
		t.Fatalf("dashboard reloads = %d, want 1", dashboard.reloadCount())
	}
	if search.reloadCount() != 0 {
		t.Fatalf("origin side reloaded %d times", search.reloadCount())
	}
	if Digest(search.Folders()) != Digest(dashboard.Folders()) {
		t.Fatal("sides did not converge")
	}
}

func TestSyncNowSkipsConvergedLists(t *testing.T) {
	t.Parallel()

	shared := []backend.Folder{folder("f1", 1, "t1")}
	search := &fakeSide{folders: shared}
	dashboard := &fakeSide{folders: shared}

	syncer := New(search, dashboard)
	syncer.SyncNow(context.Background(), FromSearch)
	syncer.SyncNow(context.Background(), FromDashboard)

	if search.reloadCount() != 0 || dashboard.reloadCount() != 0 {
		t.Fatalf("converged lists reloaded: search=%d dashboard=%d",
			search.reloadCount(), dashboard.reloadCount())
	}
}

func TestNotifyDrainsThroughQueueGoroutine(t *testing.T) {
	t.Parallel()

	fresh := []backend.Folder{folder("f1", 2, "t2")}
	search := &fakeSide{folders: fresh}
	dashboard := &fakeSide{folders: []backend.Folder{folder("f1", 1, "t1")}}
	dashboard.source = func() []backend.Folder { return fresh }

	syncer := New(search, dashboard)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncer.Start(ctx)
	defer syncer.Close()

	syncer.Notify(FromSearch)

	deadline := time.After(2 * time.Second)
	for Digest(search.Folders()) != Digest(dashboard.Folders()) {
		select {
		case <-deadline:
			t.Fatal("sides never converged")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if dashboard.reloadCount() != 1 {
		t.Fatalf("dashboard reloads = %d, want 1", dashboard.reloadCount())
	}
}

func TestRepeatedNotifiesCauseNoExtraReloads(t *testing.T) {
	t.Parallel()

	fresh := []backend.Folder{folder("f1", 2, "t2")}
	search := &fakeSide{folders: fresh}
	dashboard := &fakeSide{folders: []backend.Folder{folder("f1", 1, "t1")}}
	dashboard.source = func() []backend.Folder { return fresh }

	syncer := New(search, dashboard)
	syncer.SyncNow(context.Background(), FromSearch)

	// Converged now: further events from either side are cheap no-ops.
	syncer.SyncNow(context.Background(), FromSearch)
	syncer.SyncNow(context.Background(), FromDashboard)

	if dashboard.reloadCount() != 1 {
		t.Fatalf("dashboard reloads = %d, want 1", dashboard.reloadCount())
	}
	if search.reloadCount() != 0 {
		t.Fatalf("search reloads = %d, want 0", search.reloadCount())
	}
}

func TestMutationLandingMidPassIsReconciled(t *testing.T) {
	t.Parallel()

	v2 := []backend.Folder{folder("f1", 2, "t2")}
	v3 := []backend.Folder{folder("f1", 3, "t3")}

	search := &fakeSide{folders: v2}
	dashboard := &fakeSide{folders: []backend.Folder{folder("f1", 1, "t1")}}

	syncer := New(search, dashboard)
	first := true
	dashboard.source = func() []backend.Folder {
		if first {
			first = false
			// A search-side mutation lands while this pass is reloading,
			// after the pass has already read both lists.
			search.set(v3)
			syncer.Notify(FromSearch)
			return v2
		}
		return v3
	}

	syncer.SyncNow(context.Background(), FromSearch)

	if Digest(search.Folders()) != Digest(dashboard.Folders()) {
		t.Fatal("mid-pass mutation never reconciled")
	}
	if dashboard.reloadCount() != 2 {
		t.Fatalf("dashboard reloads = %d, want 2", dashboard.reloadCount())
	}
}

func TestNotifyAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	search := &fakeSide{}
	dashboard := &fakeSide{folders: []backend.Folder{folder("f1", 1, "t1")}}

	syncer := New(search, dashboard)
	syncer.Close()
	syncer.Notify(FromSearch)
	syncer.Close()

	if search.reloadCount() != 0 && dashboard.reloadCount() != 0 {
		t.Fatal("closed syncer still reloading")
	}
}
