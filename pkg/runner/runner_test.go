package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"github.com/entrhq/pagecheck/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "verification")
	cfg.Timeouts.ProviderSettle = 60 * time.Millisecond
	cfg.Timeouts.PollInterval = 5 * time.Millisecond
	return cfg
}

func newTestRunner(t *testing.T, cfg *Config, page *fakePage) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, logs bytes.Buffer
	r, err := New(cfg,
		WithLauncher(func(opts browser.SessionOptions) (Page, error) {
			return page, nil
		}),
		WithConsole(NewConsole(&out, VerbosityDebug)),
		WithLogger(logging.NewWriterLogger(&logs)),
	)
	require.NoError(t, err)
	return r, &out, &logs
}

func TestRun_PagesScenario(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	r, out, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	require.NoError(t, result.Err)

	assert.True(t, result.Succeeded())
	assert.Equal(t, statusSuccess, result.Status)
	assert.Equal(t, []State{
		StateLaunched, StateAuthenticated, StatePageReady, StatePageReady, StateClosed,
	}, result.States)
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "resources_page.png"),
		filepath.Join(cfg.OutputDir, "dashboard_page.png"),
	}, result.Artifacts)
	assert.Empty(t, result.Diagnostic)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, page.closed)

	for _, path := range result.Artifacts {
		assert.FileExists(t, path)
	}
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, DiagnosticScreenshot))

	// The level is chosen before the sign-in button submits it
	selectIdx := page.indexOf(`select 4 selector "#permissionLevel"`)
	clickIdx := page.indexOf(`click button "Sign in as Agent"`)
	require.NotEqual(t, -1, selectIdx)
	require.NotEqual(t, -1, clickIdx)
	assert.Less(t, selectIdx, clickIdx)
	assert.Equal(t, 1, page.count("wait-url "+cfg.URL(PathDashboard)))

	assert.Contains(t, out.String(), "Verification completed successfully!")
}

func TestRun_ModalsScenario(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)
	require.NoError(t, result.Err)

	assert.Equal(t, []State{
		StateLaunched,
		StateAuthenticated,
		StatePageReady,
		StatePageReady, // grid view
		StateElementReady, StateModalOpen, StateModalClosed,
		StateElementReady, StateModalOpen, StateModalClosed,
		StateElementReady, StateModalOpen, StateModalClosed,
		StateElementReady, StateModalOpen,
		StateClosed,
	}, result.States)

	var names []string
	for _, path := range result.Artifacts {
		assert.FileExists(t, path)
		names = append(names, filepath.Base(path))
	}
	assert.Equal(t, []string{
		"01_update_quantity_modal.png",
		"02_edit_resource_modal.png",
		"03_transfer_modal.png",
		"04_import_csv_modal.png",
	}, names)

	// Each card probe hovers the card again before looking for its button
	assert.Equal(t, 3, page.count(`hover selector ".group" (first)`))
	assert.Equal(t, 1, page.count(`click button "Grid"`))
	assert.Equal(t, 3, page.count(`click button "Cancel"`))
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, page.closed)
}

func TestRun_ViewModeAlreadyActive(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.classes[browser.ByRole("button", "Grid").String()] = "rounded bg-white px-3"
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Zero(t, page.count(`click button "Grid"`))
}

func TestRun_ProviderConfirmedWithoutWaiting(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeouts.ProviderSettle = 5 * time.Second
	page := newResourceApp(cfg)
	r, _, _ := newTestRunner(t, cfg, page)

	start := time.Now()
	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, result.Warnings)
}

func TestRun_ProviderNotConfirmedContinues(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.onClick[browser.ByRole("button", "Sign in with Discord").String()] = func(p *fakePage) {
		p.url = "https://discord.com/oauth2/authorize?client_id=1"
	}
	r, out, _ := newTestRunner(t, cfg, page)

	start := time.Now()
	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)

	// The resources page check is what decides; here the app lets it through
	require.NoError(t, result.Err)
	assert.GreaterOrEqual(t, time.Since(start), cfg.Timeouts.ProviderSettle)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "provider sign-in not confirmed")
	assert.Contains(t, out.String(), "⚠ Warning: provider sign-in not confirmed")
	assert.Contains(t, result.States, StateAuthenticated)
}

func TestRun_FailureCapturesDiagnosticAndCloses(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	edit := browser.ByRole("button", "Edit").In(browser.BySelector(".group").FirstMatch())
	delete(page.onClick, edit.String())
	page.reveals[`selector ".group" (first)`] = []string{
		browser.ByRole("button", "Add/Remove").In(browser.BySelector(".group").FirstMatch()).String(),
	}
	r, out, logs := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)
	require.Error(t, result.Err)

	assert.False(t, result.Succeeded())
	assert.Equal(t, statusFailed, result.Status)
	assert.True(t, errors.Is(result.Err, ErrElementResolution))

	var stepErr *StepError
	require.ErrorAs(t, result.Err, &stepErr)
	assert.Equal(t, "probe edit-resource", stepErr.Checkpoint)
	assert.Equal(t, StateModalClosed, stepErr.State)

	diagnostic := filepath.Join(cfg.OutputDir, DiagnosticScreenshot)
	assert.Equal(t, diagnostic, result.Diagnostic)
	assert.FileExists(t, diagnostic)
	assert.Equal(t, 1, page.count("screenshot "+diagnostic))

	// Later probes never ran
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "01_update_quantity_modal.png", filepath.Base(result.Artifacts[0]))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "03_transfer_modal.png"))

	assert.Equal(t, 1, page.closed)
	assert.Equal(t, StateClosed, result.States[len(result.States)-1])
	assert.Contains(t, out.String(), "✗ An error occurred")
	assert.Contains(t, logs.String(), "Page at failure")
}

func TestRun_ModalThatDoesNotCloseIsAssertionFailure(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.onClick[browser.ByRole("button", "Cancel").String()] = func(p *fakePage) {}
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), ModalsScenario())
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrAssertion)
	assert.ErrorIs(t, result.Err, errFakeTimeout)

	var stepErr *StepError
	require.ErrorAs(t, result.Err, &stepErr)
	assert.Equal(t, StateModalOpen, stepErr.State)
	assert.Equal(t, 1, page.closed)
}

func TestRun_AgentLandingNotReached(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.onClick[browser.ByRole("button", "Sign in as Agent").String()] = func(p *fakePage) {}
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, ErrSynchronization)
	assert.Empty(t, result.Artifacts)
	assert.FileExists(t, result.Diagnostic)
	assert.Equal(t, []State{StateLaunched, StateClosed}, result.States)
}

func TestRun_DiagnosticFailureKeepsOriginalError(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	navErr := errors.New("net::ERR_CONNECTION_REFUSED")
	page.failOn["navigate "+cfg.URL(PathResources)] = navErr
	page.shotErrFor = DiagnosticScreenshot
	r, out, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, navErr)
	assert.ErrorIs(t, result.Err, ErrSynchronization)
	assert.Empty(t, result.Diagnostic)
	assert.Equal(t, 1, page.closed)
	assert.Contains(t, out.String(), "could not capture diagnostic screenshot")
}

func TestRun_PanicIsContained(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.panicOnOp = `wait-visible selector "h1:has-text('Dashboard')"`
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "panic during scenario")
	assert.FileExists(t, result.Diagnostic)
	assert.Equal(t, 1, page.closed)
	assert.Equal(t, StateClosed, result.States[len(result.States)-1])
}

func TestRun_LaunchFailure(t *testing.T) {
	cfg := testConfig(t)
	launchErr := errors.New("chromium not installed")
	var out bytes.Buffer
	r, err := New(cfg,
		WithLauncher(func(browser.SessionOptions) (Page, error) { return nil, launchErr }),
		WithConsole(NewConsole(&out, VerbosityNormal)),
	)
	require.NoError(t, err)

	result, err := r.Run(context.Background(), PagesScenario())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, launchErr)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_LauncherReceivesSessionOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Headless = false
	page := newResourceApp(cfg)

	var got browser.SessionOptions
	r, err := New(cfg,
		WithLauncher(func(opts browser.SessionOptions) (Page, error) {
			got = opts
			return page, nil
		}),
		WithConsole(NewConsole(&bytes.Buffer{}, VerbosityQuiet)),
	)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	assert.Equal(t, "pages", got.Name)
	assert.False(t, got.Headless)
	assert.Equal(t, cfg.Timeouts.Default, got.Timeout)
	require.NotNil(t, got.Viewport)
	assert.Equal(t, cfg.Viewport, *got.Viewport)
}

func TestRun_InvalidScenarioNeverLaunches(t *testing.T) {
	cfg := testConfig(t)
	launched := false
	r, err := New(cfg,
		WithLauncher(func(browser.SessionOptions) (Page, error) {
			launched = true
			return newFakePage(), nil
		}),
		WithConsole(NewConsole(&bytes.Buffer{}, VerbosityQuiet)),
	)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), &Scenario{Name: "empty"})
	require.Error(t, err)
	assert.False(t, launched)
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	r, _, _ := newTestRunner(t, cfg, page)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, PagesScenario())
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.ErrorIs(t, result.Err, ErrSynchronization)
	assert.Equal(t, 1, page.closed)
}

func TestRun_CloseErrorIsWarning(t *testing.T) {
	cfg := testConfig(t)
	page := newResourceApp(cfg)
	page.closeErr = errors.New("browser already gone")
	r, _, _ := newTestRunner(t, cfg, page)

	result, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "browser already gone")
}

func TestRun_RepeatedRunsOverwriteArtifacts(t *testing.T) {
	cfg := testConfig(t)

	first := newResourceApp(cfg)
	r, _, _ := newTestRunner(t, cfg, first)
	res1, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	require.NoError(t, res1.Err)

	second := newResourceApp(cfg)
	second.shots = 100
	r, _, _ = newTestRunner(t, cfg, second)
	res2, err := r.Run(context.Background(), PagesScenario())
	require.NoError(t, err)
	require.NoError(t, res2.Err)

	assert.Equal(t, res1.Artifacts, res2.Artifacts)
	data, err := os.ReadFile(res2.Artifacts[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "png #101")

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "localhost:3000"
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLandingMatcher(t *testing.T) {
	g, err := landingMatcher("http://localhost:3000/dashboard")
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"http://localhost:3000/dashboard", true},
		{"http://localhost:3000/dashboard/", true},
		{"http://localhost:3000/dashboard?tab=stock", true},
		{"http://localhost:3000/dashboard#top", true},
		{"http://localhost:3000/dashboards", false},
		{"http://localhost:3000/dashboard/settings", false},
		{"https://discord.com/oauth2/authorize", false},
		{"http://localhost:3000/", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Match(tt.url))
		})
	}
}

func TestHasClass(t *testing.T) {
	assert.True(t, hasClass("px-3 bg-white rounded", "bg-white"))
	assert.True(t, hasClass("bg-white", "bg-white"))
	assert.False(t, hasClass("px-3 hover:bg-white", "bg-white"))
	assert.False(t, hasClass("", "bg-white"))
}
