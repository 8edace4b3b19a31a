package ui

// DetermineLayoutMode picks side-by-side panels when the board and info panel both fit.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 40 || rows < 20 {
		return LayoutTooSmall
	}
	if cols >= 90 && rows >= 24 {
		return LayoutWide
	}
	return LayoutMedium
}
