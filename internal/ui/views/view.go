package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Row is one line of the folder or image list
type Row struct {
	Title     string
	Detail    string // right-hand annotation such as an image count
	Checkable bool   // image rows carry a checkbox
	Checked   bool
	IsFolder  bool
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	Heading        string // current screen, "Folders" or a folder name
	HeadingDetail  string // dim suffix, e.g. the sort order
	Rows           []Row
	SelectedIndex  int
	ViewportOffset int
	ViewportHeight int
	Loading        bool
	Busy           bool   // interaction disabled
	Spinner        string // rendered spinner frame
	SelectedCount  int
	MaxSelection   int
	StatusMessage  string
	Error          string
	Warnings       int
	HelpView       string
	EmptyMessage   string
	InputPrompt    string // shown with InputView while typing a filter
	InputView      string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Styles exposes the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderTitleLine(state))
	content.WriteString("\n")

	if state.Heading != "" {
		content.WriteString(r.styles.Folder.Render(state.Heading))
		if state.HeadingDetail != "" {
			content.WriteString("  ")
			content.WriteString(r.styles.Dim.Render(state.HeadingDetail))
		}
		content.WriteString("\n")
	}

	switch {
	case state.Error != "":
		content.WriteString(r.styles.StatusError.Render(state.Error))
	case state.Loading && len(state.Rows) == 0:
		// The title already shows the spinner
		content.WriteString(r.styles.Dim.Render("Looking for images..."))
	case len(state.Rows) == 0:
		msg := state.EmptyMessage
		if msg == "" {
			msg = "No images found. Press r to refresh."
		}
		content.WriteString(r.styles.Dim.Render(msg))
	default:
		content.WriteString(r.renderList(state))
	}

	switch {
	case state.InputPrompt != "":
		content.WriteString("\n")
		content.WriteString(r.styles.Status.Render(state.InputPrompt))
		content.WriteString(state.InputView)
	case state.StatusMessage != "":
		content.WriteString("\n")
		content.WriteString(r.styles.Status.Render(state.StatusMessage))
	}

	if state.HelpView != "" {
		currentLines := strings.Count(content.String(), "\n") + 1

		// Account for container padding (1 top, 1 bottom from Padding(1, 2))
		availableLines := state.Height - 2
		if availableLines <= 0 {
			availableLines = 22
		}
		paddingNeeded := availableLines - currentLines - 1
		if paddingNeeded > 0 {
			content.WriteString(strings.Repeat("\n", paddingNeeded))
		}
		content.WriteString("\n")
		content.WriteString(r.styles.Help.Render(state.HelpView))
	}

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

// renderTitleLine renders the logo with right-aligned indicators
func (r *Renderer) renderTitleLine(state ViewState) string {
	logo := r.styles.Title.Render("imagepick")

	var indicators []string
	if state.Loading {
		indicators = append(indicators, fmt.Sprintf("%s Loading", state.Spinner))
	}
	if state.Busy {
		indicators = append(indicators, fmt.Sprintf("%s Compressing", state.Spinner))
	}
	if state.Warnings > 0 {
		indicators = append(indicators, r.styles.StatusWarning.Render(fmt.Sprintf("%d kept original", state.Warnings)))
	}
	indicators = append(indicators, r.renderSelectionCount(state))

	rightContent := r.styles.Dim.Render(strings.Join(indicators, " | "))

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	// Account for main container padding
	availableWidth := termWidth - 4
	paddingWidth := availableWidth - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if paddingWidth > 0 {
		return logo + strings.Repeat(" ", paddingWidth) + rightContent
	}
	return logo + "  " + rightContent
}

func (r *Renderer) renderSelectionCount(state ViewState) string {
	if state.MaxSelection > 0 {
		return fmt.Sprintf("%d/%d selected", state.SelectedCount, state.MaxSelection)
	}
	return fmt.Sprintf("%d selected", state.SelectedCount)
}

// renderList renders the visible window of rows with scroll indicators
func (r *Renderer) renderList(state ViewState) string {
	height := state.ViewportHeight
	if height <= 0 {
		height = len(state.Rows)
	}
	start := state.ViewportOffset
	if start < 0 || start >= len(state.Rows) {
		start = 0
	}
	end := start + height
	if end > len(state.Rows) {
		end = len(state.Rows)
	}

	lines := make([]string, 0, end-start+2)
	if start > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		lines = append(lines, r.renderRow(state.Rows[i], i == state.SelectedIndex, state.Width))
	}
	if end < len(state.Rows) {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more", len(state.Rows)-end)))
	}
	return strings.Join(lines, "\n")
}

// renderRow renders a single folder or image line
func (r *Renderer) renderRow(row Row, isCursor bool, width int) string {
	prefix := "  "
	if isCursor {
		prefix = r.styles.Highlight.Render("▸ ")
	}

	var box string
	if row.Checkable {
		if row.Checked {
			box = r.styles.Checked.Render("[x]") + " "
		} else {
			box = "[ ] "
		}
	}

	title := row.Title
	if row.IsFolder {
		title = r.styles.Folder.Render(title)
	}

	line := prefix + box + title
	if row.Detail != "" {
		line += " " + r.styles.Count.Render(row.Detail)
	}

	if isCursor {
		w := width - 4
		if w < lipgloss.Width(line) {
			w = lipgloss.Width(line)
		}
		return r.styles.HighlightBg.Width(w).Render(line)
	}
	return line
}
