package runner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
)

// AuthMode selects how a scenario signs in.
type AuthMode string

const (
	// AuthNone skips sign-in entirely
	AuthNone AuthMode = "none"
	// AuthAgent uses the development-only agent sign-in with a permission level
	AuthAgent AuthMode = "agent"
	// AuthProvider clicks a third-party identity provider button
	AuthProvider AuthMode = "provider"
)

// Auth describes the sign-in sequence.
type Auth struct {
	Mode AuthMode

	// EntryPath is the route holding the sign-in controls
	EntryPath string

	// Trigger submits the sign-in (agent) or starts the provider flow
	Trigger browser.Target

	// LevelSelect and Level pick the agent's permission level
	LevelSelect browser.Target
	Level       string

	// LandingPath is where a successful sign-in redirects to
	LandingPath string
}

// PageCheck navigates to a route and waits for the element that proves the
// page rendered.
type PageCheck struct {
	Name       string
	Path       string
	Ready      browser.Target
	Timeout    time.Duration // zero uses the configured element timeout
	Screenshot string        // artifact file name, empty for none
}

// ViewMode forces a layout toggle into its active state.
type ViewMode struct {
	Toggle      browser.Target
	ActiveClass string
}

// Probe opens a modal from a trigger and checks that it shows and goes away.
type Probe struct {
	Name string

	// Entry is hovered before every attempt so hover-revealed triggers appear.
	// Nil for page-level triggers.
	Entry *browser.Target

	Trigger    browser.Target
	Modal      browser.Target
	Screenshot string

	// Dismiss closes the modal. A probe without one leaves the modal open
	// and must be the last probe of its scenario.
	Dismiss *browser.Target
}

// Scenario is a fixed, linear verification script.
type Scenario struct {
	Name        string
	Description string
	Auth        Auth
	Pages       []PageCheck

	// ViewMode is applied on the last checked page, before any probe
	ViewMode *ViewMode
	Probes   []Probe

	// DiagnosticScreenshot is captured once when the scenario fails
	DiagnosticScreenshot string
}

// Validate checks the scenario is complete and internally consistent.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if err := s.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if len(s.Pages) == 0 {
		return fmt.Errorf("at least one page check is required")
	}

	artifacts := map[string]string{}
	claim := func(owner, name string) error {
		if name == "" {
			return nil
		}
		if err := validateArtifactName(name); err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		if prev, ok := artifacts[name]; ok {
			return fmt.Errorf("%s: screenshot %q already used by %s", owner, name, prev)
		}
		artifacts[name] = owner
		return nil
	}

	for i, p := range s.Pages {
		owner := fmt.Sprintf("page %d (%s)", i, p.Name)
		if p.Name == "" || p.Path == "" {
			return fmt.Errorf("%s: name and path are required", owner)
		}
		if err := p.Ready.Validate(); err != nil {
			return fmt.Errorf("%s: ready: %w", owner, err)
		}
		if err := claim(owner, p.Screenshot); err != nil {
			return err
		}
	}

	if s.ViewMode != nil {
		if err := s.ViewMode.Toggle.Validate(); err != nil {
			return fmt.Errorf("view mode: toggle: %w", err)
		}
		if strings.TrimSpace(s.ViewMode.ActiveClass) == "" {
			return fmt.Errorf("view mode: active class is required")
		}
	}

	for i, p := range s.Probes {
		owner := fmt.Sprintf("probe %d (%s)", i, p.Name)
		if p.Name == "" {
			return fmt.Errorf("%s: name is required", owner)
		}
		if p.Entry != nil {
			if err := p.Entry.Validate(); err != nil {
				return fmt.Errorf("%s: entry: %w", owner, err)
			}
		}
		if err := p.Trigger.Validate(); err != nil {
			return fmt.Errorf("%s: trigger: %w", owner, err)
		}
		if err := p.Modal.Validate(); err != nil {
			return fmt.Errorf("%s: modal: %w", owner, err)
		}
		if p.Dismiss == nil && i != len(s.Probes)-1 {
			return fmt.Errorf("%s: only the last probe may leave its modal open", owner)
		}
		if p.Dismiss != nil {
			if err := p.Dismiss.Validate(); err != nil {
				return fmt.Errorf("%s: dismiss: %w", owner, err)
			}
		}
		if err := claim(owner, p.Screenshot); err != nil {
			return err
		}
	}

	if s.DiagnosticScreenshot == "" {
		return fmt.Errorf("diagnostic screenshot name is required")
	}
	return claim("diagnostic", s.DiagnosticScreenshot)
}

func (a Auth) validate() error {
	switch a.Mode {
	case AuthNone:
		return nil
	case AuthAgent, AuthProvider:
	default:
		return fmt.Errorf("unknown mode %q", a.Mode)
	}

	if a.EntryPath == "" {
		return fmt.Errorf("entry path is required")
	}
	if a.LandingPath == "" {
		return fmt.Errorf("landing path is required")
	}
	if err := a.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	if a.Mode == AuthAgent {
		if err := a.LevelSelect.Validate(); err != nil {
			return fmt.Errorf("level select: %w", err)
		}
		if a.Level == "" {
			return fmt.Errorf("permission level is required")
		}
	}
	return nil
}

// validateArtifactName keeps screenshots inside the output directory.
func validateArtifactName(name string) error {
	if filepath.IsAbs(name) {
		return fmt.Errorf("screenshot %q must be relative", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("screenshot %q escapes the output directory", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		return fmt.Errorf("screenshot %q must be a .png file", name)
	}
	return nil
}
