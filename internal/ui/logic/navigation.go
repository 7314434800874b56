package logic

// Navigator handles cursor movement and viewport management for a flat list
type Navigator struct {
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	totalItems     int
}

// NewNavigator creates a new navigator
func NewNavigator() *Navigator {
	return &Navigator{viewportHeight: 20}
}

// SelectedIndex returns the cursor position
func (n *Navigator) SelectedIndex() int {
	return n.selectedIndex
}

// ViewportOffset returns the index of the first visible row
func (n *Navigator) ViewportOffset() int {
	return n.viewportOffset
}

// ViewportHeight returns the number of rows available for the list
func (n *Navigator) ViewportHeight() int {
	return n.viewportHeight
}

// TotalItems returns the list length
func (n *Navigator) TotalItems() int {
	return n.totalItems
}

// SetTotal updates the list length and clamps the cursor
func (n *Navigator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	n.totalItems = total
	n.SetSelectedIndex(n.selectedIndex)
}

// Reset moves the cursor to the top of a list with total items
func (n *Navigator) Reset(total int) {
	n.selectedIndex = 0
	n.viewportOffset = 0
	n.SetTotal(total)
}

// SetViewportHeight updates the visible row count
func (n *Navigator) SetViewportHeight(height int) {
	if height < 1 {
		height = 1
	}
	n.viewportHeight = height
	n.ensureSelectedVisible()
}

// SetSelectedIndex moves the cursor, clamped to the list, and keeps it visible
func (n *Navigator) SetSelectedIndex(index int) (int, int) {
	maxIndex := n.totalItems - 1
	if index > maxIndex {
		index = maxIndex
	}
	if index < 0 {
		index = 0
	}
	n.selectedIndex = index
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

// MoveUp moves the cursor one row up
func (n *Navigator) MoveUp() {
	n.SetSelectedIndex(n.selectedIndex - 1)
}

// MoveDown moves the cursor one row down
func (n *Navigator) MoveDown() {
	n.SetSelectedIndex(n.selectedIndex + 1)
}

// PageUp moves the cursor up by one page
func (n *Navigator) PageUp() {
	n.SetSelectedIndex(n.selectedIndex - n.pageSize())
}

// PageDown moves the cursor down by one page
func (n *Navigator) PageDown() {
	n.SetSelectedIndex(n.selectedIndex + n.pageSize())
}

// Top moves the cursor to the first row
func (n *Navigator) Top() {
	n.SetSelectedIndex(0)
}

// Bottom moves the cursor to the last row
func (n *Navigator) Bottom() {
	n.SetSelectedIndex(n.totalItems - 1)
}

// Leave some overlap between pages
func (n *Navigator) pageSize() int {
	size := n.viewportHeight - 2
	if size < 1 {
		size = 1
	}
	return size
}

// VisibleRange returns the half-open range of rows to draw
func (n *Navigator) VisibleRange() (int, int) {
	end := n.viewportOffset + n.viewportHeight
	if end > n.totalItems {
		end = n.totalItems
	}
	return n.viewportOffset, end
}

// ensureSelectedVisible adjusts the viewport to keep the selected item visible
func (n *Navigator) ensureSelectedVisible() {
	if n.selectedIndex < n.viewportOffset {
		n.viewportOffset = n.selectedIndex
	}

	if n.selectedIndex >= n.viewportOffset+n.viewportHeight {
		n.viewportOffset = n.selectedIndex - n.viewportHeight + 1
	}

	// The maximum offset should still fill the viewport
	maxOffset := n.totalItems - n.viewportHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if n.viewportOffset > maxOffset {
		n.viewportOffset = maxOffset
	}
	if n.viewportOffset < 0 {
		n.viewportOffset = 0
	}
}
