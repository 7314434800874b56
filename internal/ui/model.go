package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imagepick/internal/config"
	"imagepick/internal/domain"
	"imagepick/internal/logging"
	"imagepick/internal/picker"
	"imagepick/internal/ui/logic"
	"imagepick/internal/ui/views"
)

// AllImagesLabel names the pseudo folder listing every image
const AllImagesLabel = "All images"

type screen int

const (
	screenFolders screen = iota
	screenImages
)

// Model represents the picker UI state
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	coord  *picker.Coordinator
	config *config.Config

	// UI-specific state
	width       int
	height      int
	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	inPagerMode bool // tracks if we're currently in pager mode
	filterInput textinput.Model
	filtering   bool // typing into filterInput

	// Handlers
	navigator *logic.Navigator
	renderer  *views.Renderer
	helpText  *HelpRenderer
	pager     *PagerOps

	screen        screen
	folderCursor  int // cursor to restore when returning to the folder list
	loading       bool
	disabled      bool
	err           error
	images        []domain.Image
	folders       []domain.Folder
	shown         []domain.Image // images of the opened folder, as published
	visible       []domain.Image // shown after the name filter and sort order
	filterQuery   string
	sortMode      logic.SortMode
	current       *domain.Folder // nil while showing all images
	selectedCount int
	warnings      int
	status        string

	compressing bool
	completed   bool
	result      []domain.Image
	resultErr   error

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model driving coord
func NewModel(ctx context.Context, coord *picker.Coordinator, cfg *config.Config) *Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Prompt = "" // rendered by the view
	ti.CharLimit = 64

	return &Model{
		ctx:         ctx,
		cancel:      cancel,
		coord:       coord,
		config:      cfg,
		keys:        defaultKeyMap(),
		help:        help.New(),
		spinner:     s,
		filterInput: ti,
		navigator:   logic.NewNavigator(),
		renderer:    views.NewRenderer(),
		helpText:    NewHelpRenderer(),
		pager:       NewPagerOps(),
		loading:     true,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager.SetProgram(p)
}

// Result returns the final selection once the user finished with d.
// ok is false when the picker was quit without completing.
func (m *Model) Result() (images []domain.Image, ok bool, err error) {
	return m.result, m.completed, m.resultErr
}

// Init starts the first fetch and the spinner
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		m.coord.FetchImages(m.ctx)
		return nil
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateViewportHeight()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		// Don't spin while in pager mode
		if m.inPagerMode {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m.handleNonKeyboardMsg(msg)
	}
}

// handleKey processes key presses
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.disabled {
		// Only an interrupt gets through while compression runs
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.navigator.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.navigator.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.navigator.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.navigator.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.navigator.Top()
	case key.Matches(msg, m.keys.Bottom):
		m.navigator.Bottom()

	case key.Matches(msg, m.keys.Open):
		if m.screen == screenFolders {
			m.openFolderAt(m.navigator.SelectedIndex())
		}

	case key.Matches(msg, m.keys.Back):
		if m.screen == screenImages {
			if m.filterQuery != "" && msg.String() == "esc" {
				m.setFilter("")
				return m, nil
			}
			m.showFolders()
		}

	case key.Matches(msg, m.keys.Filter):
		if m.screen == screenImages {
			m.filtering = true
			m.filterInput.SetValue(m.filterQuery)
			m.filterInput.CursorEnd()
			return m, m.filterInput.Focus()
		}

	case key.Matches(msg, m.keys.Sort):
		if m.screen == screenImages {
			m.sortMode = m.sortMode.Next()
			m.applyImageView()
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.screen == screenImages {
			return m, m.toggleAt(m.navigator.SelectedIndex())
		}

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.err = nil
		m.showFolders()
		return m, m.fetch()

	case key.Matches(msg, m.keys.Review):
		content := m.helpText.RenderSelection(m.coord.Selected(), m.coord.Config().MaxSelection)
		return m, m.showPager("selection", content)

	case key.Matches(msg, m.keys.Help):
		return m, m.showPager("help", m.helpText.RenderHelpContent())

	case key.Matches(msg, m.keys.Done):
		m.coord.CompleteSelection()
	}
	return m, nil
}

// handleNonKeyboardMsg handles coordinator and command results
func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		switch msg.result.State {
		case domain.ResultLoading:
			m.loading = true
		case domain.ResultSuccess:
			m.loading = false
			m.err = nil
			m.images = msg.result.Data
			m.coord.DeriveFolders(m.images)
			if m.screen == screenImages && m.current == nil {
				m.coord.FilterImages(nil, m.images)
			}
		case domain.ResultFailure:
			m.loading = false
			m.err = msg.result.Err
			m.images = nil
			m.folders = nil
			m.refreshRows()
		}
		return m, nil

	case foldersMsg:
		m.folders = msg.folders
		m.refreshRows()
		return m, nil

	case folderOpenedMsg:
		folder := msg.folder
		m.current = &folder
		m.enterImages()
		m.coord.FilterImages(&folder.BucketID, m.images)
		return m, nil

	case imagesMsg:
		if m.screen != screenImages {
			return m, nil
		}
		if !msg.filtered.For(m.currentBucket()) {
			logging.Debug("dropping images filtered for another folder")
			return m, nil
		}
		m.shown = msg.filtered.Images
		m.applyImageView()
		return m, nil

	case selectionMsg:
		m.selectedCount = msg.count
		return m, nil

	case interactionMsg:
		m.disabled = msg.disabled
		if msg.disabled {
			return m, m.spinner.Tick
		}
		return m, nil

	case warningMsg:
		m.warnings++
		logging.Debug("kept original %s: %v", msg.event.Image.Name, msg.event.Reason)
		return m, nil

	case completedMsg:
		if m.compressing {
			return m, nil
		}
		m.compressing = true
		m.status = "Compressing selection..."
		return m, m.compress()

	case compressedMsg:
		m.completed = true
		m.result = msg.images
		m.resultErr = msg.err
		return m, tea.Quit

	case pagerMsg:
		if msg.err != nil {
			// Pager failed: log only and keep a short note in the status line
			logging.Warn("%s pager failed: %v", msg.what, msg.err)
			m.status = fmt.Sprintf("Could not open %s", msg.what)
			return m, clearStatusAfter(3 * time.Second)
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.spinner.Tick

	case clearStatusMsg:
		m.status = ""
		return m, nil
	}
	return m, nil
}

// openFolderAt opens the folder list row at index. Row 0 is every image.
func (m *Model) openFolderAt(index int) {
	if len(m.images) == 0 {
		return
	}
	m.folderCursor = index
	if index == 0 {
		m.current = nil
		m.enterImages()
		m.coord.FilterImages(nil, m.images)
		return
	}
	if index-1 < len(m.folders) {
		m.coord.OpenFolder(m.folders[index-1])
	}
}

// currentBucket is the bucket of the opened folder, nil for all images
func (m *Model) currentBucket() *int64 {
	if m.current == nil {
		return nil
	}
	return &m.current.BucketID
}

func (m *Model) enterImages() {
	m.screen = screenImages
	m.shown = nil
	m.visible = nil
	m.navigator.Reset(0)
}

func (m *Model) showFolders() {
	m.screen = screenFolders
	m.current = nil
	m.shown = nil
	m.visible = nil
	m.filterQuery = ""
	m.filtering = false
	m.filterInput.Blur()
	m.navigator.Reset(m.folderRowCount())
	m.navigator.SetSelectedIndex(m.folderCursor)
}

// handleFilterKey feeds keys to the filter input. Enter keeps the query,
// esc drops it.
func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		m.setFilter("")
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.setFilter(m.filterInput.Value())
	return m, cmd
}

func (m *Model) setFilter(query string) {
	m.filterQuery = query
	if query == "" {
		m.filterInput.Reset()
	}
	m.applyImageView()
}

// applyImageView recomputes the visible rows from the published images
func (m *Model) applyImageView() {
	m.visible = logic.SortImages(logic.FilterImages(m.shown, m.filterQuery), m.sortMode)
	m.navigator.SetTotal(len(m.visible))
}

// refreshRows updates the navigator after the folder list changed
func (m *Model) refreshRows() {
	if m.screen == screenFolders {
		m.navigator.SetTotal(m.folderRowCount())
	}
}

func (m *Model) folderRowCount() int {
	if len(m.images) == 0 {
		return 0
	}
	return len(m.folders) + 1
}

// toggleAt flips the selection of the image row at index, honouring the
// configured selection limit
func (m *Model) toggleAt(index int) tea.Cmd {
	if index < 0 || index >= len(m.visible) {
		return nil
	}
	img := m.visible[index]
	if m.coord.IsSelected(img.ID) {
		m.coord.SetSelected(img, false)
		return nil
	}

	limit := m.coord.Config().MaxSelection
	if limit > 0 && m.coord.SelectedCount() >= limit {
		m.status = fmt.Sprintf("Selection limit of %d reached", limit)
		return clearStatusAfter(3 * time.Second)
	}
	m.coord.SetSelected(img, true)
	return nil
}

// compress returns a command that compresses the selection off the update loop
func (m *Model) compress() tea.Cmd {
	selected := m.coord.Selected()
	return func() tea.Msg {
		images, err := m.coord.CompressSelected(m.ctx, selected)
		return compressedMsg{images: images, err: err}
	}
}

// showPager returns a command that shows content using the ov pager
func (m *Model) showPager(what, content string) tea.Cmd {
	return func() tea.Msg {
		if m.program == nil {
			return pagerMsg{what: what, err: fmt.Errorf("program not set")}
		}
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})
		err := m.pager.ShowInPager(content)
		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})
		return pagerMsg{what: what, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// updateViewportHeight calculates the available height for the list
func (m *Model) updateViewportHeight() {
	// Account for title (2 lines), heading, status (2 lines), help (1 line), and padding
	reservedLines := 9
	m.navigator.SetViewportHeight(m.height - reservedLines)
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := views.ViewState{
		Width:          m.width,
		Height:         m.height,
		SelectedIndex:  m.navigator.SelectedIndex(),
		ViewportOffset: m.navigator.ViewportOffset(),
		ViewportHeight: m.navigator.ViewportHeight(),
		Loading:        m.loading,
		Busy:           m.disabled,
		Spinner:        m.spinner.View(),
		SelectedCount:  m.selectedCount,
		MaxSelection:   m.coord.Config().MaxSelection,
		StatusMessage:  m.status,
		Warnings:       m.warnings,
		HelpView:       m.help.View(m.keys),
	}
	if m.err != nil {
		state.Error = m.err.Error()
	}

	if m.screen == screenFolders {
		state.Heading = "Folders"
		state.Rows = m.folderRows()
	} else {
		state.Heading = AllImagesLabel
		if m.current != nil {
			state.Heading = m.current.Name
		}
		state.Rows = m.imageRows()
		state.EmptyMessage = "This folder has no images."
		if m.sortMode != logic.SortByIndex {
			state.HeadingDetail = "sorted by " + m.sortMode.String()
		}
		if m.filterQuery != "" {
			state.EmptyMessage = fmt.Sprintf("No images match %q.", m.filterQuery)
		}
		if m.filtering {
			state.InputPrompt = "Filter: "
			state.InputView = m.filterInput.View()
		} else if m.filterQuery != "" && m.status == "" {
			state.StatusMessage = "Filter: " + m.filterQuery
		}
	}

	return m.renderer.Render(state)
}

func (m *Model) folderRows() []views.Row {
	if len(m.images) == 0 {
		return nil
	}
	showCounts := m.config == nil || m.config.UISettings.ShowBucketCounts

	rows := make([]views.Row, 0, len(m.folders)+1)
	all := views.Row{Title: AllImagesLabel, IsFolder: true}
	if showCounts {
		all.Detail = fmt.Sprintf("(%d)", len(m.images))
	}
	rows = append(rows, all)
	for _, f := range m.folders {
		row := views.Row{Title: f.Name, IsFolder: true}
		if showCounts {
			row.Detail = fmt.Sprintf("(%d)", len(f.Images))
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Model) imageRows() []views.Row {
	rows := make([]views.Row, 0, len(m.visible))
	for _, img := range m.visible {
		row := views.Row{Title: img.Name, Checkable: true, Checked: m.coord.IsSelected(img.ID)}
		if m.current == nil {
			row.Detail = img.BucketName
		}
		rows = append(rows, row)
	}
	return rows
}
