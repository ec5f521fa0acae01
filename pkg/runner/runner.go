package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"github.com/entrhq/pagecheck/pkg/logging"
	"github.com/gobwas/glob"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Page is the browser surface a scenario drives. *browser.Session
// implements it.
type Page interface {
	URL() string
	Navigate(url string, opts browser.NavigateOptions) error
	WaitForURL(url string, timeout time.Duration) error
	WaitVisible(t browser.Target, timeout time.Duration) error
	WaitHidden(t browser.Target, timeout time.Duration) error
	Click(t browser.Target, timeout time.Duration) error
	Hover(t browser.Target, timeout time.Duration) error
	Attribute(t browser.Target, name string, timeout time.Duration) (string, error)
	SelectOption(t browser.Target, value string, timeout time.Duration) error
	Screenshot(path string) error
	Content() (string, error)
	Close() error
}

// LaunchFunc opens a fresh browser session.
type LaunchFunc func(opts browser.SessionOptions) (Page, error)

// LaunchBrowser starts a real Playwright session.
func LaunchBrowser(opts browser.SessionOptions) (Page, error) {
	session, err := browser.Launch(opts)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Result describes what one scenario run did.
type Result struct {
	Scenario   string
	Status     string
	Err        error
	States     []State
	Artifacts  []string
	Diagnostic string
	Warnings   []string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Succeeded reports whether the scenario reached its end without failure.
func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Runner executes scenarios one at a time, each in its own browser session.
type Runner struct {
	config  *Config
	launch  LaunchFunc
	console *Console
	log     *logging.Logger
	shots   *ScreenshotWriter
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the browser launcher.
func WithLauncher(fn LaunchFunc) Option {
	return func(r *Runner) {
		r.launch = fn
	}
}

// WithConsole sets the console reporter.
func WithConsole(c *Console) Option {
	return func(r *Runner) {
		r.console = c
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.log = l.Named("runner")
	}
}

// New creates a runner for the given configuration.
func New(config *Config, opts ...Option) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := ParseVerbosity(config.Logging.Verbosity)
	r := &Runner{
		config:  config,
		launch:  LaunchBrowser,
		console: NewConsole(os.Stdout, level),
		log:     logging.NewWriterLogger(io.Discard),
		shots:   NewScreenshotWriter(config.OutputDir),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes one scenario. The returned error is non-nil only when the
// scenario is invalid or no browser session could be started; failures
// inside the scenario are reported through Result.Err after a diagnostic
// screenshot, and the session is always closed before Run returns.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", scenario.Name, err)
	}

	result := &Result{
		Scenario:  scenario.Name,
		Status:    "running",
		StartTime: time.Now(),
	}

	r.console.Header(fmt.Sprintf("pagecheck: %s", scenario.Name))
	r.log.Infof("Starting scenario %s against %s", scenario.Name, r.config.BaseURL)

	page, err := r.launch(r.config.SessionOptions(scenario.Name))
	if err != nil {
		r.log.Errorf("Failed to start browser session: %v", err)
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	exec := &execution{
		runner:   r,
		page:     page,
		scenario: scenario,
		tracker:  NewTracker(),
		result:   result,
	}

	if err := exec.guard(ctx); err != nil {
		result.Err = err
		r.log.Errorf("Scenario %s failed: %v", scenario.Name, err)
		exec.captureDiagnostic()
	}

	// Teardown runs on every path
	exec.tracker.Close()
	if err := page.Close(); err != nil {
		r.log.Warnf("Failed to close browser session: %v", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("browser session did not close cleanly: %v", err))
	}

	result.States = exec.tracker.Trail()
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if result.Err == nil {
		result.Status = statusSuccess
	} else {
		result.Status = statusFailed
	}

	r.log.Infof("Scenario %s finished: %s", scenario.Name, result.Status)
	r.console.Summary(result)
	return result, nil
}

// execution is the state of one Run call.
type execution struct {
	runner   *Runner
	page     Page
	scenario *Scenario
	tracker  *Tracker
	result   *Result
}

// guard is the failure boundary: any error or panic from the scenario body
// comes back as an error.
func (e *execution) guard(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during scenario: %v", p)
		}
	}()
	return e.steps(ctx)
}

func (e *execution) steps(ctx context.Context) error {
	if err := e.authenticate(ctx); err != nil {
		return err
	}

	for _, check := range e.scenario.Pages {
		if err := e.checkPage(ctx, check); err != nil {
			return err
		}
	}

	if e.scenario.ViewMode != nil {
		if err := e.applyViewMode(ctx, *e.scenario.ViewMode); err != nil {
			return err
		}
	}

	for _, probe := range e.scenario.Probes {
		if err := e.runProbe(ctx, probe); err != nil {
			return err
		}
	}
	return nil
}

func (e *execution) cfg() *Config {
	return e.runner.config
}

// fail wraps err as a StepError for the current state.
func (e *execution) fail(checkpoint string, kind error, err error) error {
	return &StepError{
		Checkpoint: checkpoint,
		State:      e.tracker.Current(),
		Kind:       kind,
		Err:        err,
	}
}

func (e *execution) advance(next State) error {
	if err := e.tracker.Advance(next); err != nil {
		return err
	}
	e.runner.console.Debugf("state → %s", next)
	e.runner.log.Debugf("State %s", next)
	return nil
}

// begin announces a checkpoint and stops if the run was cancelled.
func (e *execution) begin(ctx context.Context, checkpoint string) error {
	if err := ctx.Err(); err != nil {
		return e.fail(checkpoint, ErrSynchronization, fmt.Errorf("run cancelled: %w", err))
	}
	e.runner.console.Step(checkpoint)
	e.runner.log.Infof("Checkpoint %s", checkpoint)
	return nil
}

func (e *execution) navigate(checkpoint, path string) error {
	target := e.cfg().URL(path)
	e.runner.console.Verbosef("navigate %s", target)
	if err := e.page.Navigate(target, browser.NavigateOptions{Timeout: e.cfg().Timeouts.Navigation}); err != nil {
		return e.fail(checkpoint, ErrSynchronization, err)
	}
	return nil
}

func (e *execution) capture(checkpoint, name string) error {
	path, err := e.runner.shots.Capture(e.page, name)
	if err != nil {
		return e.fail(checkpoint, ErrCapture, err)
	}
	e.result.Artifacts = append(e.result.Artifacts, path)
	e.runner.console.Artifact(path)
	e.runner.log.Infof("Screenshot %s", path)
	return nil
}

func (e *execution) authenticate(ctx context.Context) error {
	auth := e.scenario.Auth
	if auth.Mode == AuthNone {
		return nil
	}

	const checkpoint = "sign-in"
	if err := e.begin(ctx, checkpoint); err != nil {
		return err
	}
	if err := e.navigate(checkpoint, auth.EntryPath); err != nil {
		return err
	}

	timeouts := e.cfg().Timeouts
	switch auth.Mode {
	case AuthAgent:
		if err := e.page.SelectOption(auth.LevelSelect, auth.Level, timeouts.Element); err != nil {
			return e.fail(checkpoint, ErrElementResolution, err)
		}
		if err := e.page.Click(auth.Trigger, timeouts.Element); err != nil {
			return e.fail(checkpoint, ErrElementResolution, err)
		}
		landing := e.cfg().URL(auth.LandingPath)
		if err := e.page.WaitForURL(landing, timeouts.Navigation); err != nil {
			return e.fail(checkpoint, ErrSynchronization, err)
		}
		e.runner.console.Successf("signed in as agent (level %s)", auth.Level)

	case AuthProvider:
		if err := e.page.Click(auth.Trigger, timeouts.Element); err != nil {
			return e.fail(checkpoint, ErrElementResolution, err)
		}
		confirmed, err := e.awaitLanding(ctx, auth.LandingPath)
		if err != nil {
			return e.fail(checkpoint, ErrSynchronization, err)
		}
		if confirmed {
			e.runner.console.Successf("provider sign-in confirmed")
		} else {
			msg := fmt.Sprintf("provider sign-in not confirmed within %s (at %s); continuing, the next page check decides",
				timeouts.ProviderSettle, e.page.URL())
			e.runner.console.Warningf("%s", msg)
			e.runner.log.Warnf("%s", msg)
			e.result.Warnings = append(e.result.Warnings, msg)
		}
	}

	return e.advance(StateAuthenticated)
}

// awaitLanding polls the page address until it matches the landing route or
// the settle timeout passes. It reports whether the landing was observed.
func (e *execution) awaitLanding(ctx context.Context, landingPath string) (bool, error) {
	matcher, err := landingMatcher(e.cfg().URL(landingPath))
	if err != nil {
		return false, err
	}

	timeouts := e.cfg().Timeouts
	deadline := time.NewTimer(timeouts.ProviderSettle)
	defer deadline.Stop()
	ticker := time.NewTicker(timeouts.PollInterval)
	defer ticker.Stop()

	for {
		if matcher.Match(e.page.URL()) {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("run cancelled: %w", ctx.Err())
		case <-deadline.C:
			return matcher.Match(e.page.URL()), nil
		case <-ticker.C:
		}
	}
}

// landingMatcher matches the landing address with or without a trailing
// slash, query string or fragment.
func landingMatcher(landing string) (glob.Glob, error) {
	q := glob.QuoteMeta(strings.TrimSuffix(landing, "/"))
	g, err := glob.Compile("{" + q + "," + q + "/," + q + "[?#]*," + q + "/[?#]*}")
	if err != nil {
		return nil, fmt.Errorf("invalid landing address %q: %w", landing, err)
	}
	return g, nil
}

func (e *execution) checkPage(ctx context.Context, check PageCheck) error {
	if err := e.begin(ctx, check.Name); err != nil {
		return err
	}
	if err := e.navigate(check.Name, check.Path); err != nil {
		return err
	}

	timeout := check.Timeout
	if timeout <= 0 {
		timeout = e.cfg().Timeouts.Element
	}
	if err := e.page.WaitVisible(check.Ready, timeout); err != nil {
		return e.fail(check.Name, ErrSynchronization, err)
	}
	if err := e.advance(StatePageReady); err != nil {
		return err
	}
	e.runner.console.Successf("%s ready (%s)", check.Name, check.Ready)

	if check.Screenshot != "" {
		return e.capture(check.Name, check.Screenshot)
	}
	return nil
}

func (e *execution) applyViewMode(ctx context.Context, mode ViewMode) error {
	const checkpoint = "view-mode"
	if err := e.begin(ctx, checkpoint); err != nil {
		return err
	}

	timeouts := e.cfg().Timeouts
	class, err := e.page.Attribute(mode.Toggle, "class", timeouts.Element)
	if err != nil {
		return e.fail(checkpoint, ErrElementResolution, err)
	}
	if hasClass(class, mode.ActiveClass) {
		e.runner.console.Verbosef("%s already active", mode.Toggle)
		return e.advance(StatePageReady)
	}

	if err := e.page.Click(mode.Toggle, timeouts.Element); err != nil {
		return e.fail(checkpoint, ErrElementResolution, err)
	}
	if err := e.awaitClass(ctx, mode, timeouts.Element); err != nil {
		return e.fail(checkpoint, ErrSynchronization, err)
	}
	e.runner.console.Successf("switched %s on", mode.Toggle)
	return e.advance(StatePageReady)
}

// awaitClass polls the toggle until it carries the active class.
func (e *execution) awaitClass(ctx context.Context, mode ViewMode, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(e.cfg().Timeouts.PollInterval)
	defer ticker.Stop()

	for {
		class, err := e.page.Attribute(mode.Toggle, "class", timeout)
		if err != nil {
			return err
		}
		if hasClass(class, mode.ActiveClass) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("run cancelled: %w", ctx.Err())
		case <-deadline.C:
			return fmt.Errorf("%s did not become %q within %s (class %q)", mode.Toggle, mode.ActiveClass, timeout, class)
		case <-ticker.C:
		}
	}
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

func (e *execution) runProbe(ctx context.Context, probe Probe) error {
	checkpoint := "probe " + probe.Name
	if err := e.begin(ctx, checkpoint); err != nil {
		return err
	}
	timeouts := e.cfg().Timeouts

	// Hover-revealed controls do not survive other UI actions, so the entry
	// is hovered again for every probe.
	if probe.Entry != nil {
		if err := e.page.Hover(*probe.Entry, timeouts.Element); err != nil {
			return e.fail(checkpoint, ErrElementResolution, err)
		}
	}
	if err := e.page.WaitVisible(probe.Trigger, timeouts.Element); err != nil {
		return e.fail(checkpoint, ErrElementResolution, err)
	}
	if err := e.advance(StateElementReady); err != nil {
		return err
	}

	if err := e.page.Click(probe.Trigger, timeouts.Element); err != nil {
		return e.fail(checkpoint, ErrElementResolution, err)
	}
	if err := e.page.WaitVisible(probe.Modal, timeouts.Modal); err != nil {
		return e.fail(checkpoint, ErrAssertion, fmt.Errorf("modal %s not visible: %w", probe.Modal, err))
	}
	if err := e.advance(StateModalOpen); err != nil {
		return err
	}
	e.runner.console.Successf("%s opened", probe.Modal)

	if probe.Screenshot != "" {
		if err := e.capture(checkpoint, probe.Screenshot); err != nil {
			return err
		}
	}

	if probe.Dismiss == nil {
		return nil
	}
	if err := e.page.Click(*probe.Dismiss, timeouts.Element); err != nil {
		return e.fail(checkpoint, ErrElementResolution, err)
	}
	if err := e.page.WaitHidden(probe.Modal, timeouts.Modal); err != nil {
		return e.fail(checkpoint, ErrAssertion, fmt.Errorf("modal %s still visible: %w", probe.Modal, err))
	}
	if err := e.advance(StateModalClosed); err != nil {
		return err
	}
	e.runner.console.Successf("%s closed", probe.Modal)
	return nil
}

// captureDiagnostic takes one best-effort screenshot of the failed page and
// logs what the page showed. Nothing here can replace the original failure.
func (e *execution) captureDiagnostic() {
	r := e.runner
	r.console.Errorf("%v", e.result.Err)

	path, err := r.shots.Capture(e.page, e.scenario.DiagnosticScreenshot)
	if err != nil {
		r.log.Warnf("Diagnostic screenshot failed: %v", err)
		r.console.Warningf("could not capture diagnostic screenshot: %v", err)
	} else {
		e.result.Diagnostic = path
		r.log.Infof("Diagnostic screenshot %s", path)
	}

	content, err := e.page.Content()
	if err != nil {
		r.log.Warnf("Could not read page content at failure: %v", err)
		return
	}
	summary, err := browser.Summarize(content)
	if err != nil {
		r.log.Warnf("Could not summarize page at failure: %v", err)
		return
	}
	r.log.Infof("Page at failure: %s; %s", e.page.URL(), summary)
	r.console.Verbosef("page at failure: %s (%s)", e.page.URL(), summary)
}
