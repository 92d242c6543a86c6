package citation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/papr-project/papr/internal/backend"
)

func saved(paper backend.Paper) backend.SavedPaper {
	return backend.SavedPaper{ID: "save-" + paper.ID, PaperID: paper.ID, Paper: paper}
}

var transformer = backend.Paper{
	ID:      "p1",
	Title:   "Attention Is All You Need",
	Authors: []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit"},
	Year:    2017,
	Venue:   "NeurIPS",
	URL:     "https://example.org/attention",
}

func TestFormatCitationsStyles(t *testing.T) {
	t.Parallel()

	papers := []backend.SavedPaper{saved(transformer)}
	cases := []struct {
		format Format
		want   string
	}{
		{FormatAPA, "Ashish Vaswani, Noam Shazeer, Niki Parmar et al. (2017). Attention Is All You Need. NeurIPS."},
		{FormatMLA, `Ashish Vaswani, Noam Shazeer, Niki Parmar et al. "Attention Is All You Need." NeurIPS, 2017.`},
		{FormatChicago, `Ashish Vaswani, Noam Shazeer, Niki Parmar et al. "Attention Is All You Need." NeurIPS (2017).`},
		{FormatIEEE, `Ashish Vaswani, Noam Shazeer, Niki Parmar et al. "Attention Is All You Need," NeurIPS, 2017.`},
		{FormatHarvard, "Ashish Vaswani, Noam Shazeer, Niki Parmar et al. (2017) 'Attention Is All You Need', NeurIPS."},
	}
	for _, tc := range cases {
		if got := FormatCitations(papers, tc.format); got != tc.want {
			t.Fatalf("%s:\n got %q\nwant %q", tc.format, got, tc.want)
		}
	}
}

func TestFormatCitationsFallbacks(t *testing.T) {
	t.Parallel()

	bare := backend.Paper{ID: "p2", Title: "Untracked Findings", Authors: []string{"Grace Hopper"}}
	got := FormatCitations([]backend.SavedPaper{saved(bare)}, FormatAPA)
	want := "Grace Hopper (n.d.). Untracked Findings. Unknown Journal."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatBibTeXEntry(t *testing.T) {
	t.Parallel()

	got := FormatCitations([]backend.SavedPaper{saved(transformer)}, FormatBibTeX)

	if !strings.HasPrefix(got, "@article{vaswani2017attention,") {
		t.Fatalf("bibtex key wrong:\n%s", got)
	}
	if !strings.Contains(got, "  author = {Ashish Vaswani, Noam Shazeer, Niki Parmar et al.},") {
		t.Fatalf("author line wrong:\n%s", got)
	}
	if !strings.Contains(got, "  url = {https://example.org/attention}") {
		t.Fatalf("url line missing:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n}") {
		t.Fatalf("entry not closed:\n%s", got)
	}
}

func TestFormatBibTeXOmitsEmptyURL(t *testing.T) {
	t.Parallel()

	noURL := transformer
	noURL.URL = ""
	got := FormatCitations([]backend.SavedPaper{saved(noURL)}, FormatBibTeX)
	if strings.Contains(got, "url =") {
		t.Fatalf("empty url rendered:\n%s", got)
	}
}

func TestMultiplePapersJoinedByBlankLine(t *testing.T) {
	t.Parallel()

	second := backend.Paper{
		ID: "p2", Title: "Deep Residual Learning",
		Authors: []string{"Kaiming He"}, Year: 2016, Venue: "CVPR",
	}
	got := FormatCitations([]backend.SavedPaper{saved(transformer), saved(second)}, FormatBibTeX)

	blocks := strings.Split(got, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d:\n%s", len(blocks), got)
	}
	if !strings.HasPrefix(blocks[0], "@article{vaswani2017attention,") ||
		!strings.HasPrefix(blocks[1], "@article{he2016deep,") {
		t.Fatalf("keys not distinct:\n%s", got)
	}
}

func TestGenerateFillsOutputAfterDelay(t *testing.T) {
	t.Parallel()

	coordinator := New(nil)
	coordinator.delay = 5 * time.Millisecond
	coordinator.OpenPopup([]backend.SavedPaper{saved(transformer)})
	coordinator.Generate(context.Background())

	state := coordinator.Snapshot()
	if state.IsGenerating {
		t.Fatal("generating flag not cleared")
	}
	if !strings.Contains(state.GeneratedCitations, "Attention Is All You Need") {
		t.Fatalf("output = %q", state.GeneratedCitations)
	}
}

func TestGenerateCancelledLeavesOutputEmpty(t *testing.T) {
	t.Parallel()

	coordinator := New(nil)
	coordinator.OpenPopup([]backend.SavedPaper{saved(transformer)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	coordinator.Generate(ctx)

	state := coordinator.Snapshot()
	if state.GeneratedCitations != "" {
		t.Fatalf("cancelled generate produced output: %q", state.GeneratedCitations)
	}
	if state.IsGenerating {
		t.Fatal("generating flag not cleared after cancel")
	}
}

func TestCopyToClipboardWithNothingGenerated(t *testing.T) {
	t.Parallel()

	coordinator := New(nil)
	if coordinator.CopyToClipboard() {
		t.Fatal("copy reported success with no output")
	}
}

func TestClosePopupClearsSelection(t *testing.T) {
	t.Parallel()

	coordinator := New(nil)
	coordinator.OpenPopup([]backend.SavedPaper{saved(transformer)})
	coordinator.ClosePopup()

	state := coordinator.Snapshot()
	if state.IsOpen || len(state.SelectedPapers) != 0 || state.GeneratedCitations != "" {
		t.Fatalf("popup state after close: %+v", state)
	}
}

func TestFormatsCatalogIsComplete(t *testing.T) {
	t.Parallel()

	want := []Format{FormatAPA, FormatMLA, FormatChicago, FormatIEEE, FormatHarvard, FormatBibTeX}
	if len(Formats) != len(want) {
		t.Fatalf("catalog has %d entries", len(Formats))
	}
	for i, option := range Formats {
		if option.ID != want[i] {
			t.Fatalf("catalog[%d] = %s, want %s", i, option.ID, want[i])
		}
		if option.Name == "" || option.Description == "" || option.Example == "" {
			t.Fatalf("catalog entry %s incomplete: %+v", option.ID, option)
		}
	}
}
