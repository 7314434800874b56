package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"imagepick/internal/domain"
	"imagepick/internal/media"
)

// HelpRenderer handles help and selection review content
type HelpRenderer struct {
	keys keyMap
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer() *HelpRenderer {
	return &HelpRenderer{keys: defaultKeyMap()}
}

var (
	pagerTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	pagerSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	pagerKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	pagerDescStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pagerDimStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

// RenderHelpContent generates help content with colors for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	sections := []string{"Navigation", "Browsing", "Selection", "Other"}

	var help strings.Builder
	help.WriteString(pagerTitleStyle.Render("imagepick Help"))
	help.WriteString("\n")

	for i, column := range r.keys.FullHelp() {
		help.WriteString(pagerSectionStyle.Render(sections[i]))
		help.WriteString("\n")
		for _, b := range column {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %-12s %s\n", pagerKeyStyle.Render(h.Key), pagerDescStyle.Render(h.Desc)))
		}
	}

	help.WriteString("\n")
	help.WriteString(pagerDimStyle.Render("  Press q to close this pager"))
	return help.String()
}

// RenderSelection lists the selected images in selection order
func (r *HelpRenderer) RenderSelection(images []domain.Image, maxSelection int) string {
	var out strings.Builder

	title := fmt.Sprintf("Selected images (%d)", len(images))
	if maxSelection > 0 {
		title = fmt.Sprintf("Selected images (%d/%d)", len(images), maxSelection)
	}
	out.WriteString(pagerTitleStyle.Render(title))
	out.WriteString("\n")

	if len(images) == 0 {
		out.WriteString(pagerDimStyle.Render("  Nothing selected yet"))
		out.WriteString("\n")
		return out.String()
	}

	for i, img := range images {
		location := img.URI
		if path, ok := media.PathFromURI(img.URI); ok {
			location = path
		}
		out.WriteString(fmt.Sprintf("%3d. %s  %s\n",
			i+1,
			pagerKeyStyle.Render(img.Name),
			pagerDescStyle.Render(fmt.Sprintf("%s  %s", img.BucketName, location)),
		))
	}
	return out.String()
}

// PagerOps shows long content in the ov pager
type PagerOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps() *PagerOps {
	return &PagerOps{}
}

// SetProgram sets the program reference for terminal management
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// ShowInPager shows content using ov pager
func (p *PagerOps) ShowInPager(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	configureVimKeyBindings(&config)

	root.SetConfig(config)
	return root.Run()
}

// configureVimKeyBindings adds j/k movement on top of ov's defaults
func configureVimKeyBindings(config *oviewer.Config) {
	if config.Keybind == nil {
		config.Keybind = make(map[string][]string)
	}
	config.Keybind["down"] = []string{"Enter", "Down", "ctrl+n", "j"}
	config.Keybind["up"] = []string{"Up", "ctrl+p", "k"}
	config.Keybind["exit"] = []string{"Escape", "q"}
}
