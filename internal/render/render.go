// Package render turns chat messages into HTML bubbles.
//
// Content is classified once into a Kind and each Kind has its own renderer:
//
//   - Diagram: assistant text containing tree-drawing characters, shown
//     verbatim in a monospaced block.
//   - RichText: any other assistant text, rendered as GitHub-flavoured
//     markdown with tables wrapped in a horizontally scrollable container.
//   - PlainEscaped: user text, HTML-escaped with a small set of inline marks.
package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/RichardoC/caonline/internal/models"
)

type Kind int

const (
	PlainEscaped Kind = iota
	Diagram
	RichText
)

func (k Kind) String() string {
	switch k {
	case Diagram:
		return "diagram"
	case RichText:
		return "rich"
	default:
		return "plain"
	}
}

var treeIndicators = []string{"└", "├", "│", "→", "=>"}

const (
	fence        = "```"
	tableOpen    = "<table>"
	tableClose   = "</table>"
	wrappedOpen  = `<div class="table-inline"><table class="ai-table">`
	wrappedClose = `</table></div>`
	diagramOpen  = `<pre class="tree-block">`
	diagramClose = `</pre>`
	WhoUser      = "user"
	WhoBot       = "bot"
)

var (
	boldRe   = regexp2.MustCompile(`\*\*(.*?)\*\*`, regexp2.None)
	italicRe = regexp2.MustCompile(`\*(.*?)\*`, regexp2.None)
	codeRe   = regexp2.MustCompile("`([^`]+)`", regexp2.None)
)

// Bubble is one rendered chat message. Original is the unmodified text the
// copy button puts on the clipboard.
type Bubble struct {
	Who      string
	Kind     Kind
	Text     string
	HTML     template.HTML
	Original string
}

// StripFence trims text and removes a surrounding triple-backtick fence,
// optionally tagged json.
func StripFence(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, fence) {
		return clean
	}
	clean = strings.TrimPrefix(clean, fence)
	clean = strings.TrimPrefix(clean, "json")
	clean = strings.TrimSuffix(clean, fence)
	return strings.TrimSpace(clean)
}

// Classify decides how content is displayed and returns the cleaned text.
func Classify(role models.Role, content string) (Kind, string) {
	clean := StripFence(content)
	if role != models.RoleAssistant {
		return PlainEscaped, clean
	}
	for _, ind := range treeIndicators {
		if strings.Contains(clean, ind) {
			return Diagram, clean
		}
	}
	return RichText, clean
}

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render always produces a bubble, falling back to escaped text when markdown
// conversion fails.
func (r *Renderer) Render(msg models.Message) Bubble {
	kind, clean := Classify(msg.Role, msg.Content)
	b := Bubble{Who: WhoBot, Kind: kind, Text: clean, Original: msg.Content}
	if msg.Role == models.RoleUser {
		b.Who = WhoUser
	}

	switch kind {
	case Diagram:
		b.HTML = template.HTML(diagramOpen + html.EscapeString(clean) + diagramClose)
	case RichText:
		out, err := r.richText(clean)
		if err != nil {
			b.Kind = PlainEscaped
			b.HTML = template.HTML(SimpleMarkdown(clean))
			break
		}
		b.HTML = template.HTML(out)
	default:
		b.HTML = template.HTML(SimpleMarkdown(clean))
	}
	return b
}

func (r *Renderer) richText(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	safe := r.policy.SanitizeBytes(buf.Bytes())
	return WrapTables(string(safe)), nil
}

// WrapTables puts every table inside a scrollable container.
func WrapTables(s string) string {
	s = strings.ReplaceAll(s, tableOpen, wrappedOpen)
	return strings.ReplaceAll(s, tableClose, wrappedClose)
}

// SimpleMarkdown escapes text and then applies bold, italic, inline code and
// line breaks. Escaping comes first so user input never becomes markup.
func SimpleMarkdown(text string) string {
	out := html.EscapeString(text)
	out = replaceAll(boldRe, out, "<strong>$1</strong>")
	out = replaceAll(italicRe, out, "<em>$1</em>")
	out = replaceAll(codeRe, out, "<code>$1</code>")
	return strings.ReplaceAll(out, "\n", "<br>")
}

// replaceAll returns s unchanged if the match times out.
func replaceAll(re *regexp2.Regexp, s, repl string) string {
	out, err := re.Replace(s, repl, -1, -1)
	if err != nil {
		return s
	}
	return out
}
