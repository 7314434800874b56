package ui

import (
	"imagepick/internal/domain"
)

// resultMsg carries a fetch state change
type resultMsg struct {
	result domain.Result[[]domain.Image]
}

// foldersMsg carries the derived folder list
type foldersMsg struct {
	folders []domain.Folder
}

// imagesMsg carries the image list filtered for one folder
type imagesMsg struct {
	filtered domain.ImagesFilteredEvent
}

// folderOpenedMsg is sent when a folder was opened
type folderOpenedMsg struct {
	folder domain.Folder
}

// selectionMsg carries the new selection size
type selectionMsg struct {
	count int
}

// interactionMsg toggles input handling while compression runs
type interactionMsg struct {
	disabled bool
}

// warningMsg reports an image kept uncompressed
type warningMsg struct {
	event domain.CompressionWarningEvent
}

// completedMsg signals that the user finished selecting
type completedMsg struct{}

// compressedMsg contains the result of compressing the selection
type compressedMsg struct {
	images []domain.Image
	err    error
}

// pagerMsg contains the result of a pager command
type pagerMsg struct {
	what string
	err  error
}

// clearStatusMsg clears the status line
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
