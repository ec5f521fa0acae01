package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// URL returns the address the page is currently showing.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	playwrightOpts := playwright.PageGotoOptions{
		Timeout: ms(opts.Timeout),
	}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if _, err := s.Page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// WaitForURL blocks until the page address matches url. The url may be an
// exact address or a Playwright glob such as "**/dashboard".
func (s *Session) WaitForURL(url string, timeout time.Duration) error {
	s.UpdateLastUsed()

	err := s.Page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: ms(timeout),
	})
	s.CurrentURL = s.Page.URL()
	if err != nil {
		return fmt.Errorf("waiting for url %s (at %s): %w", url, s.CurrentURL, err)
	}
	return nil
}

// WaitVisible blocks until the target is visible.
func (s *Session) WaitVisible(t Target, timeout time.Duration) error {
	return s.waitFor(t, playwright.WaitForSelectorStateVisible, timeout)
}

// WaitHidden blocks until the target is hidden or detached.
func (s *Session) WaitHidden(t Target, timeout time.Duration) error {
	return s.waitFor(t, playwright.WaitForSelectorStateHidden, timeout)
}

func (s *Session) waitFor(t Target, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	s.UpdateLastUsed()

	loc, err := t.locate(s.Page)
	if err != nil {
		return err
	}

	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: ms(timeout),
	}); err != nil {
		return fmt.Errorf("wait for %s to be %s failed: %w", t, *state, err)
	}
	return nil
}

// Click clicks the target.
func (s *Session) Click(t Target, timeout time.Duration) error {
	s.UpdateLastUsed()

	loc, err := t.locate(s.Page)
	if err != nil {
		return err
	}

	if err := loc.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)}); err != nil {
		return fmt.Errorf("click %s failed: %w", t, err)
	}

	// Update current URL in case click caused navigation
	s.CurrentURL = s.Page.URL()
	return nil
}

// Hover moves the mouse over the target, revealing hover-only controls.
func (s *Session) Hover(t Target, timeout time.Duration) error {
	s.UpdateLastUsed()

	loc, err := t.locate(s.Page)
	if err != nil {
		return err
	}

	if err := loc.Hover(playwright.LocatorHoverOptions{Timeout: ms(timeout)}); err != nil {
		return fmt.Errorf("hover %s failed: %w", t, err)
	}
	return nil
}

// Attribute returns the value of an attribute on the target, or "" when the
// attribute is absent.
func (s *Session) Attribute(t Target, name string, timeout time.Duration) (string, error) {
	s.UpdateLastUsed()

	loc, err := t.locate(s.Page)
	if err != nil {
		return "", err
	}

	value, err := loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: ms(timeout)})
	if err != nil {
		return "", fmt.Errorf("read %s of %s failed: %w", name, t, err)
	}
	return value, nil
}

// SelectOption selects the option with the given value in a <select> target.
func (s *Session) SelectOption(t Target, value string, timeout time.Duration) error {
	s.UpdateLastUsed()

	loc, err := t.locate(s.Page)
	if err != nil {
		return err
	}

	values := []string{value}
	if _, err := loc.SelectOption(playwright.SelectOptionValues{Values: &values},
		playwright.LocatorSelectOptionOptions{Timeout: ms(timeout)}); err != nil {
		return fmt.Errorf("select %q in %s failed: %w", value, t, err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// Screenshot writes a PNG of the current viewport to path.
func (s *Session) Screenshot(path string) error {
	s.UpdateLastUsed()

	if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return fmt.Errorf("screenshot %s failed: %w", path, err)
	}
	return nil
}

// Content returns the serialized HTML of the page.
func (s *Session) Content() (string, error) {
	s.UpdateLastUsed()

	content, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content failed: %w", err)
	}
	return content, nil
}

// Close releases the page, the context, the browser and the driver process.
// Every resource is closed even if an earlier one fails. Safe to call more
// than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.Page != nil {
		if err := s.Page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.Context != nil {
		if err := s.Context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}
