// Package citation formats saved papers in the supported citation styles and
// drives the citation popup state.
package citation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/papr-project/papr/internal/backend"
)

// Format identifies one of the supported citation styles.
type Format string

const (
	FormatAPA     Format = "apa"
	FormatMLA     Format = "mla"
	FormatChicago Format = "chicago"
	FormatIEEE    Format = "ieee"
	FormatHarvard Format = "harvard"
	FormatBibTeX  Format = "bibtex"
)

// FormatOption describes a style for the popup's format list.
type FormatOption struct {
	ID          Format
	Name        string
	Description string
	Example     string
}

// Formats lists the supported styles in display order.
var Formats = []FormatOption{
	{
		ID:          FormatAPA,
		Name:        "APA Style",
		Description: "American Psychological Association (7th Edition)",
		Example:     "Author, A. A. (Year). Title of article. Journal Name, Volume(Issue), pages.",
	},
	{
		ID:          FormatMLA,
		Name:        "MLA Style",
		Description: "Modern Language Association (9th Edition)",
		Example:     `Author. "Title of Article." Journal Name, vol. #, no. #, Year, pp. #-#.`,
	},
	{
		ID:          FormatChicago,
		Name:        "Chicago Style",
		Description: "Chicago Manual of Style (17th Edition)",
		Example:     `Author. "Title of Article." Journal Name Volume, no. Issue (Year): pages.`,
	},
	{
		ID:          FormatIEEE,
		Name:        "IEEE Style",
		Description: "Institute of Electrical and Electronics Engineers",
		Example:     `A. Author, "Title of article," Journal Name, vol. #, no. #, pp. #-#, Year.`,
	},
	{
		ID:          FormatHarvard,
		Name:        "Harvard Style",
		Description: "Harvard Reference System",
		Example:     "Author, A. (Year) 'Title of article', Journal Name, vol. #, no. #, pp. #-#.",
	},
	{
		ID:          FormatBibTeX,
		Name:        "BibTeX",
		Description: "LaTeX Bibliography Format",
		Example:     "@article{key, author={Author}, title={Title}, journal={Journal}, year={Year}}",
	},
}

// generateDelay is purely for feedback: the popup shows a generating spinner
// long enough to register.
const generateDelay = 400 * time.Millisecond

// State is the popup's whole-object state.
type State struct {
	IsOpen             bool
	SelectedFormat     Format
	SelectedPapers     []backend.SavedPaper
	GeneratedCitations string
	IsGenerating       bool
}

// Coordinator drives the citation popup.
type Coordinator struct {
	notify func()

	mu    sync.Mutex
	state State

	// delay is shortened by tests.
	delay time.Duration
}

// New builds a citation coordinator defaulting to APA.
func New(notify func()) *Coordinator {
	return &Coordinator{
		notify: notify,
		state:  State{SelectedFormat: FormatAPA},
		delay:  generateDelay,
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

// OpenPopup shows the popup for the given papers, clearing any previous output.
func (c *Coordinator) OpenPopup(papers []backend.SavedPaper) {
	c.setState(func(s *State) {
		s.IsOpen = true
		s.SelectedPapers = papers
		s.GeneratedCitations = ""
	})
}

// ClosePopup dismisses the popup and drops its selection.
func (c *Coordinator) ClosePopup() {
	c.setState(func(s *State) {
		s.IsOpen = false
		s.SelectedPapers = nil
		s.GeneratedCitations = ""
	})
}

// SetFormat selects a citation style.
func (c *Coordinator) SetFormat(format Format) {
	c.setState(func(s *State) { s.SelectedFormat = format })
}

// Generate formats the selected papers after a short artificial delay. The
// delay is cancellable; a cancelled generate leaves the output empty.
func (c *Coordinator) Generate(ctx context.Context) {
	c.setState(func(s *State) { s.IsGenerating = true })

	select {
	case <-ctx.Done():
		c.setState(func(s *State) { s.IsGenerating = false })
		return
	case <-time.After(c.delay):
	}

	c.mu.Lock()
	papers := c.state.SelectedPapers
	format := c.state.SelectedFormat
	c.mu.Unlock()

	citations := FormatCitations(papers, format)
	c.setState(func(s *State) {
		s.GeneratedCitations = citations
		s.IsGenerating = false
	})
}

// CopyToClipboard puts the generated citations on the system clipboard and
// reports success. Nothing generated means nothing copied.
func (c *Coordinator) CopyToClipboard() bool {
	c.mu.Lock()
	text := c.state.GeneratedCitations
	c.mu.Unlock()
	if text == "" {
		return false
	}
	return clipboard.WriteAll(text) == nil
}

// FormatCitations renders one citation per paper, joined by a blank line.
func FormatCitations(papers []backend.SavedPaper, format Format) string {
	blocks := make([]string, 0, len(papers))
	for _, sp := range papers {
		blocks = append(blocks, formatOne(sp.Paper, format))
	}
	return strings.Join(blocks, "\n\n")
}

func formatOne(p backend.Paper, format Format) string {
	authors := strings.Join(firstN(p.Authors, 3), ", ")
	if len(p.Authors) > 3 {
		authors += " et al."
	}
	year := "n.d."
	if p.Year != 0 {
		year = fmt.Sprintf("%d", p.Year)
	}
	venue := p.Venue
	if venue == "" {
		venue = "Unknown Journal"
	}

	switch format {
	case FormatMLA:
		return fmt.Sprintf(`%s "%s." %s, %s.`, authors, p.Title, venue, year)
	case FormatChicago:
		return fmt.Sprintf(`%s "%s." %s (%s).`, authors, p.Title, venue, year)
	case FormatIEEE:
		return fmt.Sprintf(`%s "%s," %s, %s.`, authors, p.Title, venue, year)
	case FormatHarvard:
		return fmt.Sprintf("%s (%s) '%s', %s.", authors, year, p.Title, venue)
	case FormatBibTeX:
		return formatBibTeX(p, authors, year, venue)
	default:
		return fmt.Sprintf("%s (%s). %s. %s.", authors, year, p.Title, venue)
	}
}

// formatBibTeX keys the entry by first-author surname, year, and the first
// title word, all lowercased.
func formatBibTeX(p backend.Paper, authors, year, venue string) string {
	firstAuthor := "Unknown"
	if len(p.Authors) > 0 && p.Authors[0] != "" {
		firstAuthor = p.Authors[0]
	}
	parts := strings.Fields(firstAuthor)
	surname := "unknown"
	if len(parts) > 0 {
		surname = strings.ToLower(parts[len(parts)-1])
	}
	firstWord := ""
	if words := strings.Fields(p.Title); len(words) > 0 {
		firstWord = strings.ToLower(words[0])
	}
	key := surname + year + firstWord

	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", key)
	fmt.Fprintf(&b, "  author = {%s},\n", authors)
	fmt.Fprintf(&b, "  title = {%s},\n", p.Title)
	fmt.Fprintf(&b, "  journal = {%s},\n", venue)
	fmt.Fprintf(&b, "  year = {%s}", year)
	if p.URL != "" {
		fmt.Fprintf(&b, ",\n  url = {%s}", p.URL)
	}
	b.WriteString("\n}")
	return b.String()
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
