package runner

import (
	"fmt"
	"sort"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
)

// Addresses and evidence locations of the resource-management application.
const (
	DefaultBaseURL   = "http://localhost:3000"
	DefaultOutputDir = "jules-scratch/verification"

	PathHome      = "/"
	PathSignIn    = "/auth/signin"
	PathDashboard = "/dashboard"
	PathResources = "/resources"

	// AdminPermissionLevel is the agent sign-in level with full permissions
	AdminPermissionLevel = "4"

	// GridActiveClass marks the view toggle button that is currently active
	GridActiveClass = "bg-white"

	DiagnosticScreenshot = "error.png"
)

// resourcesReadyTimeout is longer than the element default because the
// resource list is fetched after the page shell renders.
const resourcesReadyTimeout = 10 * time.Second

var builtins = map[string]func() *Scenario{
	"pages":  PagesScenario,
	"modals": ModalsScenario,
}

// Names returns the built-in scenario names in a stable order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of the named built-in scenario.
func Builtin(name string) (*Scenario, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %v)", name, Names())
	}
	return build(), nil
}

// PagesScenario signs in as an admin agent and captures the resources and
// dashboard pages.
func PagesScenario() *Scenario {
	return &Scenario{
		Name:        "pages",
		Description: "Agent sign-in at admin level, then resources and dashboard page screenshots",
		Auth: Auth{
			Mode:        AuthAgent,
			EntryPath:   PathSignIn,
			Trigger:     browser.ByRole("button", "Sign in as Agent"),
			LevelSelect: browser.BySelector("#permissionLevel"),
			Level:       AdminPermissionLevel,
			LandingPath: PathDashboard,
		},
		Pages: []PageCheck{
			{
				Name:       "resources",
				Path:       PathResources,
				Ready:      browser.BySelector("h1:has-text('Resource Management')"),
				Screenshot: "resources_page.png",
			},
			{
				Name:       "dashboard",
				Path:       PathDashboard,
				Ready:      browser.BySelector("h1:has-text('Dashboard')"),
				Screenshot: "dashboard_page.png",
			},
		},
		DiagnosticScreenshot: DiagnosticScreenshot,
	}
}

// ModalsScenario signs in through the identity provider button, switches the
// resource page to grid view and opens every resource action modal.
func ModalsScenario() *Scenario {
	card := browser.BySelector(".group").FirstMatch()
	cancel := browser.ByRole("button", "Cancel")

	cardProbe := func(name, action, screenshot string) Probe {
		return Probe{
			Name:       name,
			Entry:      &card,
			Trigger:    browser.ByRole("button", action).In(card),
			Modal:      modalHeading(action),
			Screenshot: screenshot,
			Dismiss:    &cancel,
		}
	}

	return &Scenario{
		Name:        "modals",
		Description: "Provider sign-in, grid view, then Add/Remove, Edit, Transfer and Import CSV modals",
		Auth: Auth{
			Mode:        AuthProvider,
			EntryPath:   PathHome,
			Trigger:     browser.ByRole("button", "Sign in with Discord"),
			LandingPath: PathDashboard,
		},
		Pages: []PageCheck{
			{
				Name:    "resources",
				Path:    PathResources,
				Ready:   browser.ByText("Resource Management"),
				Timeout: resourcesReadyTimeout,
			},
		},
		ViewMode: &ViewMode{
			Toggle:      browser.ByRole("button", "Grid"),
			ActiveClass: GridActiveClass,
		},
		Probes: []Probe{
			cardProbe("update-quantity", "Add/Remove", "01_update_quantity_modal.png"),
			cardProbe("edit-resource", "Edit", "02_edit_resource_modal.png"),
			cardProbe("transfer", "Transfer", "03_transfer_modal.png"),
			{
				Name:       "import-csv",
				Trigger:    browser.ByRole("button", "Import CSV"),
				Modal:      modalHeading("Import CSV"),
				Screenshot: "04_import_csv_modal.png",
			},
		},
		DiagnosticScreenshot: DiagnosticScreenshot,
	}
}

// modalHeading matches the dialog heading that carries the action's name.
func modalHeading(action string) browser.Target {
	return browser.BySelector(fmt.Sprintf("h3:has-text('%s')", action))
}
