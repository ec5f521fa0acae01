// Package browser drives a single Playwright browser session for pagecheck.
//
// A Session bundles the Playwright driver, a Chromium instance, one isolated
// browser context (own cookies and storage) and one page. The session is the
// sole owner of those resources: Close releases all of them, in reverse
// order, and must run on every exit path so no browser process outlives the
// run.
//
// # Element targets
//
// Elements are described with Target values rather than cached handles:
//
//	card := browser.BySelector(".group").FirstMatch()
//	edit := browser.ByRole("button", "Edit").In(card)
//
// Each operation resolves its target again, which matters for controls that
// only appear while the pointer hovers their parent.
//
// # Waits
//
// Every wait is bounded. WaitForURL, WaitVisible and WaitHidden block until
// the condition holds or the timeout elapses, and return an error in the
// latter case.
//
// # Example Usage
//
//	session, err := browser.Launch(browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	err = session.Navigate("http://localhost:3000/resources", browser.NavigateOptions{})
//	err = session.WaitVisible(browser.ByText("Resource Management"), 10*time.Second)
//	err = session.Screenshot("resources_page.png")
package browser
