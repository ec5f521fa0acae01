package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PageSummary is a short, human-readable outline of a rendered page used when
// reporting a failure.
type PageSummary struct {
	Title    string
	Headings []string
	Dialogs  int
}

// MaxSummaryHeadings caps how many headings a summary keeps.
const MaxSummaryHeadings = 12

// Summarize parses rendered HTML and collects the title, the h1-h3 headings
// and the number of open dialogs (role="dialog" or <dialog open>).
func Summarize(rawHTML string) (*PageSummary, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	summary := &PageSummary{}
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isSkippedElement(n.Data) {
				return
			}
			switch n.Data {
			case "title":
				if summary.Title == "" {
					summary.Title = collapseSpace(textOf(n))
				}
			case "h1", "h2", "h3":
				if text := collapseSpace(textOf(n)); text != "" && len(summary.Headings) < MaxSummaryHeadings {
					summary.Headings = append(summary.Headings, text)
				}
				return
			}
			if isDialog(n) {
				summary.Dialogs++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return summary, nil
}

// String renders the summary on a single line.
func (p *PageSummary) String() string {
	title := p.Title
	if title == "" {
		title = "(untitled)"
	}
	if len(p.Headings) == 0 {
		return fmt.Sprintf("%s; no headings; %d open dialog(s)", title, p.Dialogs)
	}
	return fmt.Sprintf("%s; headings: %s; %d open dialog(s)", title, strings.Join(p.Headings, " | "), p.Dialogs)
}

// isSkippedElement returns true for elements whose text never renders
func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg":
		return true
	}
	return false
}

func isDialog(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "role" && (attr.Val == "dialog" || attr.Val == "alertdialog") {
			return true
		}
		if n.Data == "dialog" && attr.Key == "open" {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && isSkippedElement(n.Data) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
