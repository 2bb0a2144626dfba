package richtext

import (
	"fmt"
	"regexp"
)

// Range is a selection expressed as rune offsets into a document.
// Start is inclusive and End exclusive.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Normalize orders the bounds so that Start <= End.
func (r Range) Normalize() Range {
	if r.Start > r.End {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// Clamp limits the range to a document of n runes.
func (r Range) Clamp(n int) Range {
	r = r.Normalize()
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > n {
		r.End = n
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	return r
}

// Len returns the number of runes covered.
func (r Range) Len() int {
	r = r.Normalize()
	return r.End - r.Start
}

// Empty reports whether the range is a collapsed caret.
func (r Range) Empty() bool {
	return r.Len() == 0
}

// Command names a toolbar formatting action.
type Command string

const (
	CommandBold     Command = "bold"
	CommandItalic   Command = "italic"
	CommandFontSize Command = "fontSize"
	CommandColor    Command = "color"
)

// Format is a single formatting instruction.
type Format struct {
	Command Command
	Size    int
	Color   string
}

// Palette is the set of colors offered by the toolbar.
var Palette = []string{
	"#000000",
	"#FF0000",
	"#00FF00",
	"#0000FF",
	"#FF00FF",
	"#00FFFF",
	"#FFA500",
	"#800080",
	"#008000",
	"#800000",
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks that the format carries usable arguments.
func (f Format) Validate() error {
	switch f.Command {
	case CommandBold, CommandItalic:
		return nil
	case CommandFontSize:
		if f.Size < MinFontSize || f.Size > MaxFontSize {
			return fmt.Errorf("font size %d out of range %d..%d", f.Size, MinFontSize, MaxFontSize)
		}
		return nil
	case CommandColor:
		if !hexColor.MatchString(f.Color) {
			return fmt.Errorf("invalid color %q", f.Color)
		}
		return nil
	}
	return fmt.Errorf("unknown format command %q", f.Command)
}

// NextFontSize cycles the toolbar size: each step grows by one and wraps to
// the smallest size after the largest.
func NextFontSize(current int) int {
	if current < MaxFontSize {
		return current + 1
	}
	return MinFontSize
}

// Apply returns a copy of doc with f applied to rng. Bold and italic toggle:
// they are set when any rune in the range lacks them and cleared otherwise.
// An empty range or an invalid format leaves the document unchanged.
func Apply(doc Document, rng Range, f Format) Document {
	cells := doc.cells()
	rng = rng.Clamp(len(cells))
	if rng.Empty() || f.Validate() != nil {
		return doc.Clone()
	}

	selected := cells[rng.Start:rng.End]
	switch f.Command {
	case CommandBold:
		set := !all(selected, func(s Style) bool { return s.Bold })
		for i := range selected {
			selected[i].style.Bold = set
		}
	case CommandItalic:
		set := !all(selected, func(s Style) bool { return s.Italic })
		for i := range selected {
			selected[i].style.Italic = set
		}
	case CommandFontSize:
		size := f.Size
		if size == DefaultFontSize {
			size = 0
		}
		for i := range selected {
			selected[i].style.Size = size
		}
	case CommandColor:
		for i := range selected {
			selected[i].style.Color = f.Color
		}
	}
	return fromCells(cells)
}

func all(cells []cell, pred func(Style) bool) bool {
	for _, c := range cells {
		if !pred(c.style) {
			return false
		}
	}
	return true
}
