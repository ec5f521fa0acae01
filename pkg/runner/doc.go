// Package runner executes fixed, linear UI verification scenarios against the
// resource-management application and leaves screenshots behind as evidence.
//
// A Scenario is a script: sign in, check a list of pages, optionally force a
// view mode, then open and close a list of modals. Runner.Run drives one
// scenario through one browser session and moves a Tracker through the
// lifecycle states:
//
//	launched -> authenticated -> page-ready -> element-ready -> modal-open -> modal-closed -> ... -> closed
//
// # Failure boundary
//
// Everything after the session is created runs inside one boundary. The first
// failure (or panic) stops the scenario, one diagnostic screenshot is
// attempted, the page is summarized into the debug log, and the session is
// closed. Run still returns a Result; only an invalid scenario or a browser
// that cannot be launched makes Run return an error.
//
// Failures are *StepError values. errors.Is matches their kind
// (ErrSynchronization, ErrElementResolution, ErrAssertion, ErrCapture) as well
// as the underlying cause.
//
// # Example Usage
//
//	cfg := runner.DefaultConfig()
//	r, err := runner.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	scenario, _ := runner.Builtin("modals")
//	result, err := r.Run(ctx, scenario)
//	if err != nil {
//	    return err // no browser
//	}
//	if !result.Succeeded() {
//	    fmt.Println("diagnostic:", result.Diagnostic)
//	}
package runner
