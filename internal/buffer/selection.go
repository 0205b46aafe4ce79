package buffer

type selection struct {
	anchor Position
	active Position
}

// SetSelection marks a selection between anchor and active (both clamped).
// The cursor follows active.
func (b *Buffer) SetSelection(anchor, active Position) {
	anchor = b.Clamp(anchor)
	active = b.Clamp(active)
	b.sel = &selection{anchor: anchor, active: active}
	b.cursor = active
}

// ExtendSelection moves the active end to the cursor. Without a selection it
// starts one at the cursor.
func (b *Buffer) ExtendSelection() {
	if b.sel == nil {
		b.sel = &selection{anchor: b.cursor, active: b.cursor}
		return
	}
	b.sel.active = b.cursor
}

// ClearSelection drops the selection, if any.
func (b *Buffer) ClearSelection() {
	b.clearSelection()
}

func (b *Buffer) clearSelection() {
	b.sel = nil
}

// HasSelection reports whether a selection is present.
func (b *Buffer) HasSelection() bool {
	return b.sel != nil
}

// Selection returns the normalized selection range with an exclusive end.
// ok is false when no selection exists.
func (b *Buffer) Selection() (r Range, ok bool) {
	if b.sel == nil {
		return Range{}, false
	}
	return b.clampRange(Range{Start: b.sel.anchor, End: b.sel.active}), true
}

// SelectionInclusive returns the selection with its end extended by one rune,
// covering the character under the active end the way visual mode does.
// At end-of-line the newline is included when another line follows.
func (b *Buffer) SelectionInclusive() (Range, bool) {
	r, ok := b.Selection()
	if !ok {
		return r, false
	}
	r.End = b.nextPosition(r.End)
	return r, true
}

// nextPosition returns the position one rune after p, wrapping onto the
// next line at end-of-line. At the document end it returns p.
func (b *Buffer) nextPosition(p Position) Position {
	if p.Col < b.LineLen(p.Line) {
		return Position{Line: p.Line, Col: p.Col + 1}
	}
	if p.Line+1 < len(b.lines) {
		return Position{Line: p.Line + 1}
	}
	return p
}
