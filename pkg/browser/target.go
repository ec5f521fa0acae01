package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Target describes how to find an element on the page.
//
// Exactly one of Role, Text or Selector must be set. Role lookups use the
// accessibility tree and should be preferred over structural selectors; Name
// narrows a role lookup to the element's accessible name. Targets are plain
// values and are resolved again on every use, so a hover-revealed control is
// looked up fresh each time it is needed.
type Target struct {
	Role     string  `yaml:"role,omitempty"`
	Name     string  `yaml:"name,omitempty"`
	Text     string  `yaml:"text,omitempty"`
	Selector string  `yaml:"selector,omitempty"`
	Exact    bool    `yaml:"exact,omitempty"`
	First    bool    `yaml:"first,omitempty"`
	Within   *Target `yaml:"within,omitempty"`
}

// ByRole returns a target matching an ARIA role with the given accessible name.
func ByRole(role, name string) Target {
	return Target{Role: role, Name: name}
}

// ByText returns a target matching visible text.
func ByText(text string) Target {
	return Target{Text: text}
}

// BySelector returns a target matching a CSS or Playwright selector.
func BySelector(selector string) Target {
	return Target{Selector: selector}
}

// In scopes the target to elements inside parent.
func (t Target) In(parent Target) Target {
	p := parent
	t.Within = &p
	return t
}

// FirstMatch narrows the target to its first match.
func (t Target) FirstMatch() Target {
	t.First = true
	return t
}

// Validate checks that the target names exactly one lookup strategy.
func (t Target) Validate() error {
	set := 0
	for _, v := range []string{t.Role, t.Text, t.Selector} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("target must set exactly one of role, text or selector (got %d)", set)
	}
	if t.Name != "" && t.Role == "" {
		return fmt.Errorf("target name %q requires a role", t.Name)
	}
	if t.Within != nil {
		if err := t.Within.Validate(); err != nil {
			return fmt.Errorf("within: %w", err)
		}
	}
	return nil
}

// String renders the target for logs and error messages.
func (t Target) String() string {
	var b strings.Builder
	switch {
	case t.Role != "" && t.Name != "":
		fmt.Fprintf(&b, "%s %q", t.Role, t.Name)
	case t.Role != "":
		b.WriteString(t.Role)
	case t.Text != "":
		fmt.Fprintf(&b, "text %q", t.Text)
	default:
		fmt.Fprintf(&b, "selector %q", t.Selector)
	}
	if t.First {
		b.WriteString(" (first)")
	}
	if t.Within != nil {
		fmt.Fprintf(&b, " in %s", t.Within.String())
	}
	return b.String()
}

// locate resolves the target into a fresh Playwright locator.
func (t Target) locate(page playwright.Page) (playwright.Locator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var loc playwright.Locator
	if t.Within != nil {
		parent, err := t.Within.locate(page)
		if err != nil {
			return nil, err
		}
		loc = t.fromLocator(parent)
	} else {
		loc = t.fromPage(page)
	}

	if t.First {
		loc = loc.First()
	}
	return loc, nil
}

func (t Target) fromPage(page playwright.Page) playwright.Locator {
	switch {
	case t.Role != "":
		opts := playwright.PageGetByRoleOptions{}
		if t.Name != "" {
			opts.Name = t.Name
		}
		if t.Exact {
			opts.Exact = playwright.Bool(true)
		}
		return page.GetByRole(playwright.AriaRole(t.Role), opts)
	case t.Text != "":
		return page.GetByText(t.Text, playwright.PageGetByTextOptions{
			Exact: playwright.Bool(t.Exact),
		})
	default:
		return page.Locator(t.Selector)
	}
}

func (t Target) fromLocator(parent playwright.Locator) playwright.Locator {
	switch {
	case t.Role != "":
		opts := playwright.LocatorGetByRoleOptions{}
		if t.Name != "" {
			opts.Name = t.Name
		}
		if t.Exact {
			opts.Exact = playwright.Bool(true)
		}
		return parent.GetByRole(playwright.AriaRole(t.Role), opts)
	case t.Text != "":
		return parent.GetByText(t.Text, playwright.LocatorGetByTextOptions{
			Exact: playwright.Bool(t.Exact),
		})
	default:
		return parent.Locator(t.Selector)
	}
}
