package richtext

// Tracker remembers the last selection made inside the editable region so
// toolbar actions, which take focus away from it, still format the text the
// user had selected.
type Tracker struct {
	saved Range
	ok    bool
}

// Save records r as the active selection. A collapsed caret, as left by
// clicking back into the region, does not replace a saved text selection.
func (t *Tracker) Save(r Range) {
	r = r.Normalize()
	if r.Empty() && t.ok && !t.saved.Empty() {
		return
	}
	t.saved = r
	t.ok = true
}

// Saved returns the recorded selection, if any.
func (t *Tracker) Saved() (Range, bool) {
	return t.saved, t.ok
}

// Clear forgets the recorded selection.
func (t *Tracker) Clear() {
	t.saved = Range{}
	t.ok = false
}

// Resolve picks the range a formatting command should act on: the live
// selection when it covers text, the saved one otherwise.
func (t *Tracker) Resolve(live *Range) (Range, bool) {
	if live != nil && !live.Empty() {
		return live.Normalize(), true
	}
	if t.ok {
		return t.saved, true
	}
	return Range{}, false
}

// Inserted keeps the saved range anchored to the same text after n runes
// were inserted at offset.
func (t *Tracker) Inserted(offset, n int) {
	if !t.ok || n <= 0 {
		return
	}
	switch {
	case offset <= t.saved.Start:
		t.saved.Start += n
		t.saved.End += n
	case offset < t.saved.End:
		t.saved.End += n
	}
}
