// Package tui renders the Papr terminal client. The model owns no domain
// state of its own: coordinators are snapshotted on every render, and every
// remote call runs as a job so the event loop never blocks.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papr-project/papr/internal/auth"
	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/citation"
	"github.com/papr-project/papr/internal/dashboard"
	"github.com/papr-project/papr/internal/foldersync"
	"github.com/papr-project/papr/internal/preview"
	"github.com/papr-project/papr/internal/search"
	"github.com/papr-project/papr/internal/themeapi"
)

// Config wires the coordinators and collaborators into the TUI program.
type Config struct {
	Backend   *backend.Client
	Session   *auth.Coordinator
	Form      *auth.Form
	Search    *search.Coordinator
	Dashboard *dashboard.Coordinator
	Citations *citation.Coordinator
	Syncer    *foldersync.Syncer
	Preview   *preview.Fetcher
	Theme     *themeapi.Client

	// OpenURL opens a result's page in the system browser. Swapped by tests.
	OpenURL func(string) error
}

type stage int

const (
	stageSearch stage = iota
	stageLibrary
	stageAuth
	stagePreview
)

const (
	minListWidth = 40
	authFields   = 4
)

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	queryInput := textinput.New()
	queryInput.Placeholder = "Search papers…"
	queryInput.Focus()
	queryInput.CharLimit = 200
	queryInput.Width = 60

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter your library…"
	filterInput.CharLimit = 120
	filterInput.Width = 50

	folderInput := textinput.New()
	folderInput.Placeholder = "New folder name…"
	folderInput.CharLimit = 80
	folderInput.Width = 40

	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.CharLimit = 120
	emailInput.Width = 40

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 120
	passwordInput.Width = 40

	usernameInput := textinput.New()
	usernameInput.Placeholder = "username"
	usernameInput.CharLimit = 60
	usernameInput.Width = 40

	repeatInput := textinput.New()
	repeatInput.Placeholder = "repeat password"
	repeatInput.EchoMode = textinput.EchoPassword
	repeatInput.CharLimit = 120
	repeatInput.Width = 40

	avatarInput := textinput.New()
	avatarInput.Placeholder = "path to avatar image…"
	avatarInput.CharLimit = 200
	avatarInput.Width = 50

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:          config,
		jobs:            newJobBus(),
		stage:           stageSearch,
		queryInput:      queryInput,
		filterInput:     filterInput,
		folderInput:     folderInput,
		emailInput:      emailInput,
		passwordInput:   passwordInput,
		usernameInput:   usernameInput,
		repeatInput:     repeatInput,
		avatarInput:     avatarInput,
		spinner:         spin,
		previewViewport: vp,
		theme:           "dark",
		expandedTLDR:    map[string]bool{},
		runningJobs:     map[string]jobSnapshot{},
		infoMessage:     "Type a query and press Enter to search.",
	}
}

type model struct {
	config Config
	jobs   *jobBus
	stage  stage

	queryInput    textinput.Model
	filterInput   textinput.Model
	folderInput   textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	usernameInput textinput.Model
	repeatInput   textinput.Model
	avatarInput   textinput.Model

	spinner         spinner.Model
	previewViewport viewport.Model

	width  int
	height int

	resultCursor   int
	libraryCursor  int
	pickerCursor   int
	citationCursor int
	formFocus      int

	theme        string
	expandedTLDR map[string]bool

	previewPaperID string
	previewTitle   string

	infoMessage string

	runningJobs map[string]jobSnapshot
	lastJob     jobSnapshot
}

type refreshMsg struct{}

type previewResultMsg struct {
	paperID string
	title   string
	text    string
	err     error
}

type clipboardResultMsg struct {
	ok bool
}

type themeResultMsg struct {
	theme string
	err   error
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startupJob())
}

// startupJob validates any stored session, then warms the saved-paper and
// folder caches on both screens.
func (m *model) startupJob() tea.Cmd {
	return m.jobs.Start(jobKindAuth, func(ctx context.Context) (tea.Msg, error) {
		m.config.Session.CheckAuthStatus(ctx)
		if m.config.Session.IsAuthenticated() {
			m.config.Search.LoadSavedPaperIDs(ctx)
			m.config.Search.LoadFolders(ctx)
			m.config.Dashboard.LoadFolders(ctx)
			m.config.Dashboard.LoadSavedPapers(ctx, true)
		}
		return refreshMsg{}, nil
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 4
		if w < minListWidth {
			w = minListWidth
		}
		m.previewViewport.Width = w
		h := msg.Height - 8
		if h < 6 {
			h = 6
		}
		m.previewViewport.Height = h
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case jobSignalMsg:
		m.runningJobs[msg.Snapshot.ID] = msg.Snapshot
		return m, nil

	case jobResultEnvelope:
		delete(m.runningJobs, msg.Snapshot.ID)
		m.lastJob = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)

	case refreshMsg:
		return m, nil

	case previewResultMsg:
		// Late responses for a paper the user navigated away from are dropped.
		if m.stage != stagePreview || msg.paperID != m.previewPaperID {
			return m, nil
		}
		if msg.err != nil {
			m.infoMessage = ""
			m.previewViewport.SetContent(errorStyle.Render(msg.err.Error()))
			return m, nil
		}
		m.previewTitle = msg.title
		m.previewViewport.SetContent(wrapText(msg.text, m.previewViewport.Width))
		m.previewViewport.GotoTop()
		return m, nil

	case clipboardResultMsg:
		if msg.ok {
			m.infoMessage = "Citations copied to clipboard."
		} else {
			m.infoMessage = "Clipboard copy failed."
		}
		return m, nil

	case themeResultMsg:
		if msg.err != nil {
			m.infoMessage = fmt.Sprintf("Theme not persisted: %v", msg.err)
			return m, nil
		}
		m.infoMessage = fmt.Sprintf("Theme set to %s.", msg.theme)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.config.Syncer != nil {
			m.config.Syncer.Close()
		}
		return m, tea.Quit
	}

	// Popups capture keys before the stage handlers.
	if m.config.Citations.Snapshot().IsOpen {
		return m.handleCitationKey(msg)
	}
	if m.config.Search.Snapshot().ShowFolderPicker {
		return m.handlePickerKey(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlL:
		m.toggleLibrary()
		return m, nil
	case tea.KeyCtrlA:
		m.stage = stageAuth
		m.queryInput.Blur()
		if m.config.Form.Snapshot().Mode == auth.ModeSignup {
			m.focusAuthField(0)
		} else {
			m.focusAuthField(1)
		}
		return m, nil
	case tea.KeyCtrlT:
		return m, m.toggleThemeCmd()
	}

	switch m.stage {
	case stageSearch:
		return m.handleSearchKey(msg)
	case stageLibrary:
		return m.handleLibraryKey(msg)
	case stageAuth:
		return m.handleAuthKey(msg)
	case stagePreview:
		return m.handlePreviewKey(msg)
	}
	return m, nil
}

func (m *model) toggleLibrary() {
	if m.stage == stageLibrary {
		m.stage = stageSearch
		m.queryInput.Focus()
		return
	}
	m.stage = stageLibrary
	m.queryInput.Blur()
	m.filterInput.Focus()
}

// --- search stage ---

func (m *model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.config.Search.Snapshot()

	switch msg.Type {
	case tea.KeyEnter:
		m.config.Search.SetQuery(m.queryInput.Value())
		m.resultCursor = 0
		return m, m.searchJob()
	case tea.KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.resultCursor < len(snap.Results)-1 {
			m.resultCursor++
		}
		return m, nil
	case tea.KeyCtrlS:
		return m, m.saveSelectedCmd(snap)
	case tea.KeyCtrlU:
		return m, m.unsaveSelectedCmd(snap)
	case tea.KeyCtrlO:
		return m, m.openSelectedCmd(snap)
	case tea.KeyCtrlP:
		return m, m.previewSelectedCmd(snap)
	case tea.KeyEsc:
		m.config.Search.ClearError()
		return m, nil
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	return m, cmd
}

func (m *model) searchJob() tea.Cmd {
	return m.jobs.Start(jobKindSearch, func(ctx context.Context) (tea.Msg, error) {
		m.config.Search.PerformSearch(ctx)
		return refreshMsg{}, nil
	})
}

func (m *model) selectedResult(snap search.State) *backend.Paper {
	if m.resultCursor < 0 || m.resultCursor >= len(snap.Results) {
		return nil
	}
	paper := snap.Results[m.resultCursor]
	return &paper
}

func (m *model) saveSelectedCmd(snap search.State) tea.Cmd {
	paper := m.selectedResult(snap)
	if paper == nil {
		return nil
	}
	m.pickerCursor = 0
	m.config.Search.SavePaper(paper.ID)
	return nil
}

func (m *model) unsaveSelectedCmd(snap search.State) tea.Cmd {
	paper := m.selectedResult(snap)
	if paper == nil || !snap.SavedPaperIDs[paper.ID] {
		return nil
	}
	id := paper.ID
	return m.jobs.Start(jobKindUnsave, func(ctx context.Context) (tea.Msg, error) {
		m.config.Search.UnsavePaper(ctx, id)
		m.notifyFolderChange(foldersync.FromSearch)
		return refreshMsg{}, nil
	})
}

// openSelectedCmd toggles the inline TLDR panel for results that have one and
// opens the paper's page externally for those that only carry a URL.
func (m *model) openSelectedCmd(snap search.State) tea.Cmd {
	paper := m.selectedResult(snap)
	if paper == nil {
		return nil
	}
	if paper.Tldr != nil && paper.Tldr.Text != "" {
		m.expandedTLDR[paper.ID] = !m.expandedTLDR[paper.ID]
		return nil
	}
	if paper.URL != "" && m.config.OpenURL != nil {
		if err := m.config.OpenURL(paper.URL); err != nil {
			m.infoMessage = fmt.Sprintf("Could not open browser: %v", err)
		}
	}
	return nil
}

func (m *model) previewSelectedCmd(snap search.State) tea.Cmd {
	paper := m.selectedResult(snap)
	if paper == nil || m.config.Preview == nil {
		return nil
	}
	if paper.URL == "" {
		m.infoMessage = "This result has no PDF link."
		return nil
	}
	m.stage = stagePreview
	m.previewPaperID = paper.ID
	m.previewTitle = paper.Title
	m.previewViewport.SetContent(helperStyle.Render("Fetching PDF…"))
	id, title, url := paper.ID, paper.Title, paper.URL
	return m.jobs.Start(jobKindPreview, func(ctx context.Context) (tea.Msg, error) {
		text, err := m.config.Preview.Text(ctx, url)
		return previewResultMsg{paperID: id, title: title, text: text, err: err}, err
	})
}

// --- folder picker popup ---

func (m *model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.config.Search.Snapshot()
	// Cursor 0 is Uncategorized, folders follow.
	optionCount := len(snap.Folders) + 1

	if m.folderInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.config.Search.SetNewFolderName(m.folderInput.Value())
			m.folderInput.SetValue("")
			m.folderInput.Blur()
			return m, m.jobs.Start(jobKindSave, func(ctx context.Context) (tea.Msg, error) {
				m.config.Search.CreateFolderAndSave(ctx)
				m.notifyFolderChange(foldersync.FromSearch)
				return refreshMsg{}, nil
			})
		case tea.KeyEsc:
			m.folderInput.SetValue("")
			m.folderInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.folderInput, cmd = m.folderInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.config.Search.CloseFolderPicker()
		return m, nil
	case tea.KeyUp:
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.pickerCursor < optionCount-1 {
			m.pickerCursor++
		}
		return m, nil
	case tea.KeyCtrlN:
		m.folderInput.Focus()
		return m, nil
	case tea.KeyEnter:
		paperID := snap.PendingPaperID
		var folderID *string
		if m.pickerCursor > 0 && m.pickerCursor-1 < len(snap.Folders) {
			id := snap.Folders[m.pickerCursor-1].ID
			folderID = &id
		}
		return m, m.jobs.Start(jobKindSave, func(ctx context.Context) (tea.Msg, error) {
			m.config.Search.SavePaperToFolder(ctx, paperID, folderID)
			m.notifyFolderChange(foldersync.FromSearch)
			return refreshMsg{}, nil
		})
	}
	return m, nil
}

// --- library stage ---

func (m *model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.config.Dashboard.Snapshot()
	visible := m.config.Dashboard.FilteredSavedPapers()

	if m.folderInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.config.Dashboard.SetNewFolderName(m.folderInput.Value())
			m.folderInput.SetValue("")
			m.folderInput.Blur()
			return m, m.jobs.Start(jobKindFolders, func(ctx context.Context) (tea.Msg, error) {
				m.config.Dashboard.CreateFolder(ctx)
				m.notifyFolderChange(foldersync.FromDashboard)
				return refreshMsg{}, nil
			})
		case tea.KeyEsc:
			m.folderInput.SetValue("")
			m.folderInput.Blur()
			m.config.Dashboard.CloseAddFolder()
			return m, nil
		}
		var cmd tea.Cmd
		m.folderInput, cmd = m.folderInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyUp:
		if m.libraryCursor > 0 {
			m.libraryCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.libraryCursor < len(visible)-1 {
			m.libraryCursor++
		}
		return m, nil
	case tea.KeyLeft:
		return m, m.cycleFolderCmd(snap, -1)
	case tea.KeyRight:
		return m, m.cycleFolderCmd(snap, 1)
	case tea.KeyCtrlN:
		return m, m.jobs.Start(jobKindLibrary, func(ctx context.Context) (tea.Msg, error) {
			m.config.Dashboard.LoadMore(ctx)
			return refreshMsg{}, nil
		})
	case tea.KeyCtrlD:
		if m.libraryCursor < len(visible) {
			paperID := visible[m.libraryCursor].PaperID
			return m, m.jobs.Start(jobKindUnsave, func(ctx context.Context) (tea.Msg, error) {
				m.config.Dashboard.UnsavePaper(ctx, paperID)
				m.notifyFolderChange(foldersync.FromDashboard)
				return refreshMsg{}, nil
			})
		}
		return m, nil
	case tea.KeyCtrlF:
		m.config.Dashboard.OpenAddFolder()
		m.folderInput.Focus()
		return m, nil
	case tea.KeyCtrlX:
		if id := snap.SelectedFolder.FolderID(); id != nil {
			folderID := *id
			return m, m.jobs.Start(jobKindFolders, func(ctx context.Context) (tea.Msg, error) {
				m.config.Dashboard.DeleteFolder(ctx, folderID)
				m.notifyFolderChange(foldersync.FromDashboard)
				return refreshMsg{}, nil
			})
		}
		return m, nil
	case tea.KeyCtrlY:
		if len(visible) > 0 {
			m.citationCursor = 0
			m.config.Citations.OpenPopup(visible)
		}
		return m, nil
	case tea.KeyEsc:
		m.config.Dashboard.ClearError()
		return m, nil
	case tea.KeyEnter:
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.config.Dashboard.SetSearchQuery(m.filterInput.Value())
	return m, cmd
}

// cycleFolderCmd walks the scope ring: all → uncategorized → each folder.
func (m *model) cycleFolderCmd(snap dashboard.State, direction int) tea.Cmd {
	folders := snap.Folders
	ring := make([]backend.FolderScope, 0, len(folders)+2)
	ring = append(ring, backend.AllFolders(), backend.Uncategorized())
	for _, folder := range folders {
		ring = append(ring, backend.InFolder(folder.ID))
	}

	current := 0
	for i, scope := range ring {
		if scopesEqual(scope, snap.SelectedFolder) {
			current = i
			break
		}
	}
	next := (current + direction + len(ring)) % len(ring)
	scope := ring[next]
	m.libraryCursor = 0
	return m.jobs.Start(jobKindLibrary, func(ctx context.Context) (tea.Msg, error) {
		m.config.Dashboard.SetSelectedFolder(ctx, scope)
		return refreshMsg{}, nil
	})
}

func scopesEqual(a, b backend.FolderScope) bool {
	if a.IsAll() || b.IsAll() {
		return a.IsAll() && b.IsAll()
	}
	if a.IsUncategorized() || b.IsUncategorized() {
		return a.IsUncategorized() && b.IsUncategorized()
	}
	return *a.FolderID() == *b.FolderID()
}

// --- citation popup ---

func (m *model) handleCitationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.config.Citations.ClosePopup()
		return m, nil
	case tea.KeyLeft:
		if m.citationCursor > 0 {
			m.citationCursor--
			m.config.Citations.SetFormat(citation.Formats[m.citationCursor].ID)
		}
		return m, nil
	case tea.KeyRight:
		if m.citationCursor < len(citation.Formats)-1 {
			m.citationCursor++
			m.config.Citations.SetFormat(citation.Formats[m.citationCursor].ID)
		}
		return m, nil
	case tea.KeyEnter:
		return m, m.jobs.Start(jobKindCitation, func(ctx context.Context) (tea.Msg, error) {
			m.config.Citations.Generate(ctx)
			return refreshMsg{}, nil
		})
	case tea.KeyCtrlY:
		return m, m.jobs.Start(jobKindCitation, func(context.Context) (tea.Msg, error) {
			return clipboardResultMsg{ok: m.config.Citations.CopyToClipboard()}, nil
		})
	}
	return m, nil
}

// --- auth stage ---

func (m *model) authInputs() []*textinput.Model {
	return []*textinput.Model{&m.usernameInput, &m.emailInput, &m.passwordInput, &m.repeatInput}
}

func (m *model) focusAuthField(index int) {
	m.formFocus = index
	for i, input := range m.authInputs() {
		if i == index {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m *model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.config.Session.Snapshot()
	if session.IsAuthenticated {
		return m.handleProfileKey(msg)
	}

	form := m.config.Form.Snapshot()
	signup := form.Mode == auth.ModeSignup

	switch msg.Type {
	case tea.KeyEsc:
		m.stage = stageSearch
		m.queryInput.Focus()
		return m, nil
	case tea.KeyCtrlG:
		if signup {
			m.config.Form.SetMode(auth.ModeLogin)
			m.focusAuthField(1)
		} else {
			m.config.Form.SetMode(auth.ModeSignup)
			m.focusAuthField(0)
		}
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.focusAuthField(m.nextAuthField(1, signup))
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focusAuthField(m.nextAuthField(-1, signup))
		return m, nil
	case tea.KeyEnter:
		m.syncFormFields()
		return m, m.jobs.Start(jobKindAuth, func(ctx context.Context) (tea.Msg, error) {
			m.config.Form.Submit(ctx)
			if m.config.Session.IsAuthenticated() {
				m.config.Search.LoadSavedPaperIDs(ctx)
				m.config.Search.LoadFolders(ctx)
				m.config.Dashboard.LoadFolders(ctx)
				m.config.Dashboard.LoadSavedPapers(ctx, true)
			}
			return refreshMsg{}, nil
		})
	}

	inputs := m.authInputs()
	var cmd tea.Cmd
	*inputs[m.formFocus], cmd = inputs[m.formFocus].Update(msg)
	m.syncFocusedField()
	return m, cmd
}

// syncFocusedField pushes only the edited field into the form so typing
// clears that field's error and no other.
func (m *model) syncFocusedField() {
	switch m.formFocus {
	case 0:
		m.config.Form.SetUsername(m.usernameInput.Value())
	case 1:
		m.config.Form.SetEmail(m.emailInput.Value())
	case 2:
		m.config.Form.SetPassword(m.passwordInput.Value())
	case 3:
		m.config.Form.SetRepeatPassword(m.repeatInput.Value())
	}
}

// nextAuthField skips the signup-only fields while the form is in login mode.
func (m *model) nextAuthField(direction int, signup bool) int {
	index := m.formFocus
	for {
		index = (index + direction + authFields) % authFields
		if signup || (index != 0 && index != 3) {
			return index
		}
	}
}

func (m *model) syncFormFields() {
	m.config.Form.SetUsername(m.usernameInput.Value())
	m.config.Form.SetEmail(m.emailInput.Value())
	m.config.Form.SetPassword(m.passwordInput.Value())
	m.config.Form.SetRepeatPassword(m.repeatInput.Value())
}

func (m *model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.avatarInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			path := strings.TrimSpace(m.avatarInput.Value())
			m.avatarInput.SetValue("")
			m.avatarInput.Blur()
			if path == "" {
				return m, nil
			}
			return m, m.jobs.Start(jobKindAuth, func(ctx context.Context) (tea.Msg, error) {
				m.config.Session.UploadThumbnail(ctx, path)
				return refreshMsg{}, nil
			})
		case tea.KeyEsc:
			m.avatarInput.SetValue("")
			m.avatarInput.Blur()
			m.config.Session.ClearUploadError()
			return m, nil
		}
		var cmd tea.Cmd
		m.avatarInput, cmd = m.avatarInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.stage = stageSearch
		m.queryInput.Focus()
		return m, nil
	case tea.KeyCtrlU:
		m.avatarInput.Focus()
		return m, nil
	case tea.KeyCtrlG:
		m.config.Session.Logout()
		m.stage = stageSearch
		m.queryInput.Focus()
		return m, nil
	}
	return m, nil
}

// --- preview stage ---

func (m *model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.stage = stageSearch
		m.previewPaperID = ""
		m.queryInput.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.previewViewport, cmd = m.previewViewport.Update(msg)
	return m, cmd
}

// --- shared helpers ---

func (m *model) toggleThemeCmd() tea.Cmd {
	if m.theme == "dark" {
		m.theme = "light"
	} else {
		m.theme = "dark"
	}
	if m.config.Theme == nil {
		m.infoMessage = fmt.Sprintf("Theme set to %s (not persisted).", m.theme)
		return nil
	}
	theme := m.theme
	return m.jobs.Start(jobKindTheme, func(ctx context.Context) (tea.Msg, error) {
		err := m.config.Theme.SetTheme(ctx, theme)
		return themeResultMsg{theme: theme, err: err}, err
	})
}

func (m *model) notifyFolderChange(origin foldersync.Origin) {
	if m.config.Syncer != nil {
		m.config.Syncer.Notify(origin)
	}
}
