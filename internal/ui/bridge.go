package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"imagepick/internal/domain"
	"imagepick/internal/eventbus"
	"imagepick/internal/picker"
)

// Sender delivers messages into a running program
type Sender interface {
	Send(msg tea.Msg)
}

// Forward subscribes to every coordinator topic and relays values to s as
// UI messages. The returned function unsubscribes.
func Forward(s Sender, c *picker.Coordinator) func() {
	stops := []func(){
		forward(s, c.Result, func(v domain.Result[[]domain.Image]) tea.Msg { return resultMsg{result: v} }),
		forward(s, c.Folders, func(v []domain.Folder) tea.Msg { return foldersMsg{folders: v} }),
		forward(s, c.Images, func(v domain.ImagesFilteredEvent) tea.Msg { return imagesMsg{filtered: v} }),
		forward(s, c.FolderSelected, func(v domain.FolderSelectedEvent) tea.Msg { return folderOpenedMsg{folder: v.Folder} }),
		forward(s, c.SelectionChanged, func(v domain.SelectionChangedEvent) tea.Msg { return selectionMsg{count: v.Count} }),
		forward(s, c.Interaction, func(v domain.InteractionChangedEvent) tea.Msg { return interactionMsg{disabled: v.Disabled} }),
		forward(s, c.Warnings, func(v domain.CompressionWarningEvent) tea.Msg { return warningMsg{event: v} }),
		forward(s, c.Completed, func(domain.SelectionCompletedEvent) tea.Msg { return completedMsg{} }),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

func forward[T any](s Sender, topic *eventbus.Topic[T], wrap func(T) tea.Msg) func() {
	ch, unsubscribe := topic.Subscribe()
	go func() {
		for v := range ch {
			s.Send(wrap(v))
		}
	}()
	return unsubscribe
}
