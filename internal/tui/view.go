package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/papr-project/papr/internal/auth"
	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/citation"
	"github.com/papr-project/papr/internal/dashboard"
)

func (m *model) View() string {
	var body string
	switch m.stage {
	case stageSearch:
		body = m.viewSearch()
	case stageLibrary:
		body = m.viewLibrary()
	case stageAuth:
		body = m.viewAuth()
	case stagePreview:
		body = m.viewPreview()
	}

	if m.config.Citations.Snapshot().IsOpen {
		body = joinNonEmpty([]string{body, m.citationPopup()})
	} else if m.config.Search.Snapshot().ShowFolderPicker {
		body = joinNonEmpty([]string{body, m.folderPickerPopup()})
	}

	return joinNonEmpty([]string{m.headerView(), body, m.statusBarView()})
}

func (m *model) headerView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		logoStyle.Render(logoArt),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) statusBarView() string {
	session := m.config.Session.Snapshot()
	who := "anonymous"
	if session.IsAuthenticated && session.User != nil {
		who = session.User.Username
	}
	parts := []string{
		fmt.Sprintf("User %s", who),
		fmt.Sprintf("Theme %s", m.theme),
	}
	for _, job := range m.runningJobs {
		parts = append(parts, fmt.Sprintf("%s %s…", m.spinner.View(), job.Kind))
	}
	if len(m.runningJobs) == 0 && m.lastJob.ID != "" {
		parts = append(parts, fmt.Sprintf("last %s %s", m.lastJob.Kind, m.lastJob.Status))
	}
	return statusBarStyle.Render(strings.Join(parts, "  •  "))
}

// --- search ---

func (m *model) viewSearch() string {
	snap := m.config.Search.Snapshot()
	parts := []string{
		sectionHeaderStyle.Render("Search"),
		m.queryInput.View(),
	}

	if snap.IsLoading {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Searching…", m.spinner.View())))
	}
	if snap.Error != "" {
		parts = append(parts, errorStyle.Render(snap.Error)+helperStyle.Render("  (Esc to dismiss)"))
	}

	if len(snap.Results) > 0 {
		parts = append(parts, sectionHeaderStyle.Render(fmt.Sprintf("%d papers found", snap.Total)))
		parts = append(parts, m.resultListView(snap.Results, snap.SavedPaperIDs, snap.SavingPaperIDs))
	} else if !snap.IsLoading && m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}

	parts = append(parts, helperStyle.Render(
		"Enter: search • ↑/↓: select • Ctrl+S: save • Ctrl+U: unsave • Ctrl+O: TLDR/open • Ctrl+P: preview • Ctrl+L: library • Ctrl+A: account"))
	return joinNonEmpty(parts)
}

func (m *model) resultListView(results []backend.Paper, saved, saving map[string]bool) string {
	width := m.wrapWidth()
	var b strings.Builder
	for idx, paper := range results {
		line := fmt.Sprintf("%s (%s)", paper.Title, paperYear(paper))
		switch {
		case saving[paper.ID]:
			line = savingMarkerStyle.Render("⋯ ") + line
		case saved[paper.ID]:
			line = savedMarkerStyle.Render("✔ ") + line
		default:
			line = "  " + line
		}
		if idx == m.resultCursor {
			line = currentLineStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteRune('\n')

		meta := shortenList(paper.Authors, 3)
		if paper.Venue != "" {
			meta = joinMeta(meta, paper.Venue)
		}
		if paper.CitationCount > 0 {
			meta = joinMeta(meta, fmt.Sprintf("%d citations", paper.CitationCount))
		}
		if meta != "" {
			b.WriteString(helperStyle.Render("      " + meta))
			b.WriteRune('\n')
		}

		if m.expandedTLDR[paper.ID] && paper.Tldr != nil {
			b.WriteString(tldrBoxStyle.Render(wordwrap.String("TLDR: "+paper.Tldr.Text, width-8)))
			b.WriteRune('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) folderPickerPopup() string {
	snap := m.config.Search.Snapshot()
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Save to folder"))
	b.WriteRune('\n')

	options := []string{"Uncategorized"}
	for _, folder := range snap.Folders {
		options = append(options, fmt.Sprintf("%s (%d)", folder.Name, folder.PaperCount))
	}
	for idx, option := range options {
		if idx == m.pickerCursor && !m.folderInput.Focused() {
			b.WriteString(currentLineStyle.Render("▸ " + option))
		} else {
			b.WriteString("  " + option)
		}
		b.WriteRune('\n')
	}

	b.WriteRune('\n')
	b.WriteString(m.folderInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter: save here • Ctrl+N: new folder • Esc: cancel"))
	return popupBoxStyle.Render(b.String())
}

// --- library ---

func (m *model) viewLibrary() string {
	snap := m.config.Dashboard.Snapshot()
	visible := m.config.Dashboard.FilteredSavedPapers()

	parts := []string{
		sectionHeaderStyle.Render("Library"),
		m.folderStripView(snap),
		m.filterInput.View(),
	}

	if snap.IsLoading {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Loading…", m.spinner.View())))
	}
	if snap.Error != "" {
		parts = append(parts, errorStyle.Render(snap.Error)+helperStyle.Render("  (Esc to dismiss)"))
	}

	if len(visible) == 0 && !snap.IsLoading {
		parts = append(parts, helperStyle.Render("No saved papers here yet."))
	} else {
		parts = append(parts, m.savedListView(visible))
	}
	if snap.HasMore {
		parts = append(parts, helperStyle.Render("Ctrl+N: load more"))
	}
	if snap.ShowAddFolder {
		parts = append(parts, popupBoxStyle.Render(joinNonEmpty([]string{
			sectionHeaderStyle.Render("New folder"),
			m.folderInput.View(),
			helperStyle.Render("Enter: create • Esc: cancel"),
		})))
	}

	parts = append(parts, helperStyle.Render(
		"←/→: folders • ↑/↓: select • Ctrl+D: unsave • Ctrl+F: new folder • Ctrl+X: delete folder • Ctrl+Y: cite • Ctrl+L: search"))
	return joinNonEmpty(parts)
}

func (m *model) folderStripView(snap dashboard.State) string {
	cells := []string{
		m.folderCell(fmt.Sprintf("All (%d)", snap.TotalCount), snap.SelectedFolder.IsAll()),
		m.folderCell(fmt.Sprintf("Uncategorized (%d)", snap.UncategorizedCount), snap.SelectedFolder.IsUncategorized()),
	}
	for _, folder := range snap.Folders {
		selected := snap.SelectedFolder.FolderID() != nil && *snap.SelectedFolder.FolderID() == folder.ID
		cells = append(cells, m.folderCell(fmt.Sprintf("%s (%d)", folder.Name, folder.PaperCount), selected))
	}
	return strings.Join(cells, "  ")
}

func (m *model) folderCell(label string, selected bool) string {
	if selected {
		return folderSelectedStyle.Render("[" + label + "]")
	}
	return helperStyle.Render(label)
}

func (m *model) savedListView(papers []backend.SavedPaper) string {
	var b strings.Builder
	for idx, sp := range papers {
		line := fmt.Sprintf("%s (%s)", sp.Paper.Title, paperYear(sp.Paper))
		if idx == m.libraryCursor {
			line = currentLineStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteRune('\n')
		if meta := shortenList(sp.Paper.Authors, 3); meta != "" {
			b.WriteString(helperStyle.Render("    " + meta))
			b.WriteRune('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// --- citation popup ---

func (m *model) citationPopup() string {
	snap := m.config.Citations.Snapshot()
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Cite %d papers", len(snap.SelectedPapers))))
	b.WriteRune('\n')

	var tabs []string
	for idx, option := range citation.Formats {
		label := option.Name
		if idx == m.citationCursor {
			label = currentLineStyle.Render(" " + label + " ")
		} else {
			label = helperStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render(citation.Formats[m.citationCursor].Description))
	b.WriteRune('\n')
	b.WriteRune('\n')

	switch {
	case snap.IsGenerating:
		b.WriteString(helperStyle.Render(fmt.Sprintf("%s Generating…", m.spinner.View())))
	case snap.GeneratedCitations != "":
		b.WriteString(wordwrap.String(snap.GeneratedCitations, m.wrapWidth()-8))
	default:
		b.WriteString(helperStyle.Render("Press Enter to generate."))
	}
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("←/→: format • Enter: generate • Ctrl+Y: copy • Esc: close"))
	return popupBoxStyle.Render(b.String())
}

// --- auth ---

func (m *model) viewAuth() string {
	session := m.config.Session.Snapshot()
	if session.IsAuthenticated {
		return m.viewProfile(session)
	}

	form := m.config.Form.Snapshot()
	title := "Log in"
	toggleHint := "Ctrl+G: switch to sign up"
	if form.Mode == auth.ModeSignup {
		title = "Sign up"
		toggleHint = "Ctrl+G: switch to log in"
	}

	parts := []string{sectionHeaderStyle.Render(title)}
	if form.Mode == auth.ModeSignup {
		parts = append(parts, m.formFieldView("Username", m.usernameInput.View(), form.FieldErrors["username"]))
	}
	parts = append(parts, m.formFieldView("Email", m.emailInput.View(), form.FieldErrors["email"]))
	parts = append(parts, m.formFieldView("Password", m.passwordInput.View(), form.FieldErrors["password"]))
	if form.Mode == auth.ModeSignup {
		parts = append(parts, m.formFieldView("Repeat password", m.repeatInput.View(), form.FieldErrors["repeatPassword"]))
	}

	if form.IsSubmitting {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Submitting…", m.spinner.View())))
	}
	if form.ErrorMessage != "" {
		parts = append(parts, errorStyle.Render(form.ErrorMessage))
	}
	parts = append(parts, helperStyle.Render("Tab: next field • Enter: submit • "+toggleHint+" • Esc: back"))
	return joinNonEmpty(parts)
}

func (m *model) formFieldView(label, input, fieldError string) string {
	lines := []string{helperStyle.Render(label), input}
	if fieldError != "" {
		lines = append(lines, fieldErrorStyle.Render(fieldError))
	}
	return strings.Join(lines, "\n")
}

func (m *model) viewProfile(session auth.State) string {
	user := session.User
	parts := []string{
		sectionHeaderStyle.Render("Account"),
		titleStyle.Render(user.Username),
		helperStyle.Render(user.Email),
	}
	if user.ThumbnailURL != "" {
		parts = append(parts, helperStyle.Render("Avatar: "+user.ThumbnailURL))
	}
	if session.IsUploadingThumbnail {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s Uploading…", m.spinner.View())))
	}
	if session.UploadError != "" {
		parts = append(parts, errorStyle.Render(session.UploadError))
	}
	if m.avatarInput.Focused() {
		parts = append(parts, m.avatarInput.View())
	}
	parts = append(parts, helperStyle.Render("Ctrl+U: upload avatar • Ctrl+G: log out • Esc: back"))
	return joinNonEmpty(parts)
}

// --- preview ---

func (m *model) viewPreview() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Preview: " + m.previewTitle),
		m.previewViewport.View(),
		helperStyle.Render("↑/↓: scroll • Esc: back"),
	})
}

// --- helpers ---

func (m *model) wrapWidth() int {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if width < minListWidth {
		width = minListWidth
	}
	return width
}

func wrapText(text string, width int) string {
	if width < 20 {
		width = 20
	}
	return wordwrap.String(text, width)
}

func paperYear(p backend.Paper) string {
	if p.Year == 0 {
		return "n.d."
	}
	return fmt.Sprintf("%d", p.Year)
}

func shortenList(items []string, limit int) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + " et al."
}

func joinMeta(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			filtered = append(filtered, part)
		}
	}
	return strings.Join(filtered, " • ")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
