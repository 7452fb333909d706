package googleauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// newHardenedClient returns an HTTP client that never follows redirects. A
// token or revocation endpoint answering with a 3xx is treated as a failed
// request rather than replayed against whatever host it points at.
func newHardenedClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// withHardenedClient makes x/oauth2 perform its exchanges through the
// no-redirect client.
func withHardenedClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, newHardenedClient())
}
