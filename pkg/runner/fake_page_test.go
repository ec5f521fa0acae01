package runner

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
)

var errFakeTimeout = errors.New("timeout exceeded")

// fakePage is an in-memory stand-in for the resource-management application.
// Targets are keyed by their String() form.
type fakePage struct {
	url      string
	pages    map[string][]string          // path -> targets visible after navigation
	visible  map[string]bool              // currently visible targets
	revealed map[string]bool              // visible only while the last hover lasts
	reveals  map[string][]string          // hover target -> targets it reveals
	classes  map[string]string            // target -> class attribute
	onClick  map[string]func(p *fakePage) // click side effects
	failOn   map[string]error             // "<op> <target>" -> forced error
	selected map[string]string
	content  string

	calls      []string
	shots      int
	closed     int
	closeErr   error
	panicOnOp  string
	shotErrFor string
}

func newFakePage() *fakePage {
	return &fakePage{
		url:      "about:blank",
		pages:    map[string][]string{},
		visible:  map[string]bool{},
		revealed: map[string]bool{},
		reveals:  map[string][]string{},
		classes:  map[string]string{},
		onClick:  map[string]func(p *fakePage){},
		failOn:   map[string]error{},
		selected: map[string]string{},
		content:  "<html><head><title>Fake</title></head><body><h1>Resource Management</h1></body></html>",
	}
}

func (p *fakePage) record(op string, t fmt.Stringer) error {
	key := op
	if t != nil {
		key = op + " " + t.String()
	}
	p.calls = append(p.calls, key)
	if p.panicOnOp != "" && p.panicOnOp == key {
		panic("fake page exploded on " + key)
	}
	if err, ok := p.failOn[key]; ok {
		return err
	}
	return nil
}

func (p *fakePage) isVisible(key string) bool {
	return p.visible[key] || p.revealed[key]
}

func (p *fakePage) show(keys ...string) {
	for _, k := range keys {
		p.visible[k] = true
	}
}

func (p *fakePage) hide(keys ...string) {
	for _, k := range keys {
		delete(p.visible, k)
	}
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Navigate(target string, _ browser.NavigateOptions) error {
	p.calls = append(p.calls, "navigate "+target)
	if err, ok := p.failOn["navigate "+target]; ok {
		return err
	}
	p.url = target
	p.visible = map[string]bool{}
	p.revealed = map[string]bool{}

	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	p.show(p.pages[u.Path]...)
	return nil
}

func (p *fakePage) WaitForURL(want string, _ time.Duration) error {
	p.calls = append(p.calls, "wait-url "+want)
	if p.url != want {
		return fmt.Errorf("waiting for %s, at %s: %w", want, p.url, errFakeTimeout)
	}
	return nil
}

func (p *fakePage) WaitVisible(t browser.Target, _ time.Duration) error {
	if err := p.record("wait-visible", t); err != nil {
		return err
	}
	if !p.isVisible(t.String()) {
		return fmt.Errorf("%s: %w", t, errFakeTimeout)
	}
	return nil
}

func (p *fakePage) WaitHidden(t browser.Target, _ time.Duration) error {
	if err := p.record("wait-hidden", t); err != nil {
		return err
	}
	if p.isVisible(t.String()) {
		return fmt.Errorf("%s: %w", t, errFakeTimeout)
	}
	return nil
}

func (p *fakePage) Click(t browser.Target, _ time.Duration) error {
	if err := p.record("click", t); err != nil {
		return err
	}
	key := t.String()
	if !p.isVisible(key) {
		return fmt.Errorf("element %s not found", key)
	}
	// Any click moves focus away and hover-revealed controls disappear
	p.revealed = map[string]bool{}
	if fn, ok := p.onClick[key]; ok {
		fn(p)
	}
	return nil
}

func (p *fakePage) Hover(t browser.Target, _ time.Duration) error {
	if err := p.record("hover", t); err != nil {
		return err
	}
	key := t.String()
	if !p.isVisible(key) {
		return fmt.Errorf("element %s not found", key)
	}
	p.revealed = map[string]bool{}
	for _, r := range p.reveals[key] {
		p.revealed[r] = true
	}
	return nil
}

func (p *fakePage) Attribute(t browser.Target, name string, _ time.Duration) (string, error) {
	if err := p.record("attr-"+name, t); err != nil {
		return "", err
	}
	if !p.isVisible(t.String()) {
		return "", fmt.Errorf("element %s not found", t)
	}
	return p.classes[t.String()], nil
}

func (p *fakePage) SelectOption(t browser.Target, value string, _ time.Duration) error {
	if err := p.record("select "+value, t); err != nil {
		return err
	}
	if !p.isVisible(t.String()) {
		return fmt.Errorf("element %s not found", t)
	}
	p.selected[t.String()] = value
	return nil
}

func (p *fakePage) Screenshot(path string) error {
	p.calls = append(p.calls, "screenshot "+path)
	if p.shotErrFor != "" && strings.HasSuffix(path, p.shotErrFor) {
		return fmt.Errorf("screenshot %s failed: page crashed", path)
	}
	p.shots++
	return os.WriteFile(path, []byte(fmt.Sprintf("png #%d of %s", p.shots, p.url)), 0600)
}

func (p *fakePage) Content() (string, error) {
	p.calls = append(p.calls, "content")
	return p.content, nil
}

func (p *fakePage) Close() error {
	p.calls = append(p.calls, "close")
	p.closed++
	return p.closeErr
}

// newResourceApp wires a fake that behaves like the resource-management
// application for both built-in scenarios.
func newResourceApp(cfg *Config) *fakePage {
	p := newFakePage()

	agentButton := browser.ByRole("button", "Sign in as Agent").String()
	levelSelect := browser.BySelector("#permissionLevel").String()
	discord := browser.ByRole("button", "Sign in with Discord").String()
	grid := browser.ByRole("button", "Grid").String()
	card := browser.BySelector(".group").FirstMatch()
	importCSV := browser.ByRole("button", "Import CSV").String()
	cancel := browser.ByRole("button", "Cancel").String()

	p.pages[PathSignIn] = []string{agentButton, levelSelect}
	p.pages[PathHome] = []string{discord}
	p.pages[PathDashboard] = []string{browser.BySelector("h1:has-text('Dashboard')").String()}
	p.pages[PathResources] = []string{
		browser.BySelector("h1:has-text('Resource Management')").String(),
		browser.ByText("Resource Management").String(),
		grid,
		card.String(),
		importCSV,
	}
	p.classes[grid] = "rounded px-3 py-1 hover:bg-white"

	p.onClick[agentButton] = func(p *fakePage) {
		if p.selected[levelSelect] == AdminPermissionLevel {
			p.url = cfg.URL(PathDashboard)
		}
	}
	p.onClick[discord] = func(p *fakePage) {
		p.url = cfg.URL(PathDashboard)
	}
	p.onClick[grid] = func(p *fakePage) {
		p.classes[grid] = "rounded px-3 py-1 bg-white"
	}

	var modals []string
	for _, action := range []string{"Add/Remove", "Edit", "Transfer"} {
		trigger := browser.ByRole("button", action).In(card).String()
		modal := modalHeading(action).String()
		p.reveals[card.String()] = append(p.reveals[card.String()], trigger)
		p.onClick[trigger] = func(p *fakePage) {
			p.show(modal, cancel)
		}
		modals = append(modals, modal)
	}
	p.onClick[importCSV] = func(p *fakePage) {
		p.show(modalHeading("Import CSV").String())
	}
	p.onClick[cancel] = func(p *fakePage) {
		p.hide(modals...)
		p.hide(cancel)
	}

	return p
}

func (p *fakePage) count(call string) int {
	n := 0
	for _, c := range p.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (p *fakePage) indexOf(call string) int {
	for i, c := range p.calls {
		if c == call {
			return i
		}
	}
	return -1
}
