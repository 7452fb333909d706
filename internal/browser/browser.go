package browser

import (
	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/pkg/browser"
)

// OpenURL hands a URL to the operating system's default-browser opener.
// Package variable so tests can substitute a fake browser.
var OpenURL = browser.OpenURL

// Open launches url in the default browser. Success carries no further
// signal; the rest of the flow's liveness depends on the redirect listener.
func Open(url string) error {
	if err := OpenURL(url); err != nil {
		return autherr.Wrap(autherr.KindNetwork, "failed to open browser", err)
	}
	return nil
}
