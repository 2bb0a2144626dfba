package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var cssFontSizes = map[int]string{
	1: "x-small",
	2: "small",
	3: "medium",
	4: "large",
	5: "x-large",
	6: "xx-large",
	7: "xxx-large",
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "span", "br")
	p.AllowStyles("font-size").
		Matching(regexp.MustCompile(`^(x{0,3}-)?(small|medium|large)$`)).
		OnElements("span")
	p.AllowStyles("color").
		Matching(regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)).
		OnElements("span")
	return p
}

// HTML renders the document as sanitized markup.
func HTML(doc Document) string {
	var b strings.Builder
	for _, run := range doc.Runs {
		b.WriteString(renderRun(run))
	}
	return policy.Sanitize(b.String())
}

func renderRun(run Run) string {
	text := strings.ReplaceAll(html.EscapeString(run.Text), "\n", "<br>")

	var styles []string
	if size, ok := cssFontSizes[run.Style.Size]; ok && run.Style.Size != DefaultFontSize {
		styles = append(styles, "font-size: "+size)
	}
	if run.Style.Color != "" {
		styles = append(styles, "color: "+run.Style.Color)
	}
	if run.Style.Italic {
		text = "<i>" + text + "</i>"
	}
	if run.Style.Bold {
		text = "<b>" + text + "</b>"
	}
	if len(styles) > 0 {
		text = `<span style="` + strings.Join(styles, "; ") + `">` + text + "</span>"
	}
	return text
}
