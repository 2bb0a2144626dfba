// Package richtext models comment text as a list of styled runs and applies
// formatting as pure functions over (document, range, format).
package richtext

import (
	"strings"
	"unicode/utf8"
)

// Font sizes follow the 1..7 scale of the browser editing commands.
const (
	MinFontSize     = 1
	MaxFontSize     = 7
	DefaultFontSize = 3
)

// Style is the formatting carried by a run. A zero Size means the default size.
type Style struct {
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Run is a span of text sharing a single style.
type Run struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Document is an ordered list of runs. Adjacent runs never share a style
// once a document has gone through Insert or Apply.
type Document struct {
	Runs []Run `json:"runs"`
}

// Plain builds a single unstyled run document.
func Plain(text string) Document {
	if text == "" {
		return Document{}
	}
	return Document{Runs: []Run{{Text: text}}}
}

// Clone returns a copy of d that shares no memory with it.
func (d Document) Clone() Document {
	if len(d.Runs) == 0 {
		return Document{}
	}
	return Document{Runs: append([]Run{}, d.Runs...)}
}

// Len returns the document length in runes.
func (d Document) Len() int {
	n := 0
	for _, r := range d.Runs {
		n += utf8.RuneCountInString(r.Text)
	}
	return n
}

// PlainText returns the text of the document with formatting removed.
func (d Document) PlainText() string {
	var b strings.Builder
	for _, r := range d.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// IsBlank reports whether the document holds only whitespace.
func (d Document) IsBlank() bool {
	return strings.TrimSpace(d.PlainText()) == ""
}

// StyleAt returns the style of the rune at offset.
func (d Document) StyleAt(offset int) (Style, bool) {
	cells := d.cells()
	if offset < 0 || offset >= len(cells) {
		return Style{}, false
	}
	return cells[offset].style, true
}

type cell struct {
	r     rune
	style Style
}

func (d Document) cells() []cell {
	out := make([]cell, 0, d.Len())
	for _, run := range d.Runs {
		for _, r := range run.Text {
			out = append(out, cell{r: r, style: run.Style})
		}
	}
	return out
}

func fromCells(cells []cell) Document {
	var doc Document
	var b strings.Builder
	for i, c := range cells {
		if i > 0 && c.style != cells[i-1].style {
			doc.Runs = append(doc.Runs, Run{Text: b.String(), Style: cells[i-1].style})
			b.Reset()
		}
		b.WriteRune(c.r)
	}
	if len(cells) > 0 {
		doc.Runs = append(doc.Runs, Run{Text: b.String(), Style: cells[len(cells)-1].style})
	}
	return doc
}

// Append adds text with the given style at the end of the document.
func Append(doc Document, text string, style Style) Document {
	cells := doc.cells()
	for _, r := range text {
		cells = append(cells, cell{r: r, style: style})
	}
	return fromCells(cells)
}

// Insert places text at offset. The inserted text takes the style of the
// rune before offset, or of the first rune when inserting at the start.
func Insert(doc Document, offset int, text string) Document {
	cells := doc.cells()
	if offset < 0 {
		offset = 0
	}
	if offset > len(cells) {
		offset = len(cells)
	}

	var style Style
	switch {
	case offset > 0:
		style = cells[offset-1].style
	case len(cells) > 0:
		style = cells[0].style
	}

	inserted := make([]cell, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		inserted = append(inserted, cell{r: r, style: style})
	}

	out := make([]cell, 0, len(cells)+len(inserted))
	out = append(out, cells[:offset]...)
	out = append(out, inserted...)
	out = append(out, cells[offset:]...)
	return fromCells(out)
}

// Delete removes the runes covered by rng.
func Delete(doc Document, rng Range) Document {
	cells := doc.cells()
	rng = rng.Normalize().Clamp(len(cells))
	if rng.Empty() {
		return doc.Clone()
	}
	out := make([]cell, 0, len(cells)-rng.Len())
	out = append(out, cells[:rng.Start]...)
	out = append(out, cells[rng.End:]...)
	return fromCells(out)
}
