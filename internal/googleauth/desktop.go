package googleauth

import (
	"context"
	"net/url"
	"strconv"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/browser"
	"github.com/dgellow/google-auth/internal/config"
	"github.com/dgellow/google-auth/internal/crypto"
	"github.com/dgellow/google-auth/internal/log"
	"github.com/dgellow/google-auth/internal/loopback"
	"github.com/dgellow/google-auth/internal/worker"
	"golang.org/x/oauth2"
)

const (
	defaultRedirectHost = "localhost"
	loopbackHost        = "127.0.0.1"
)

// Desktop implements Service with the loopback-redirect PKCE flow: open the
// system browser on the authorization URL, receive the redirect on a
// temporary loopback listener, and exchange the code directly against the
// token endpoint.
type Desktop struct {
	endpoints config.Endpoints
}

var _ Service = (*Desktop)(nil)

// NewDesktop creates the desktop flow against the given provider endpoints.
func NewDesktop(endpoints config.Endpoints) *Desktop {
	return &Desktop{endpoints: endpoints}
}

// SignIn runs one complete authorization-code flow. It blocks until the
// browser redirect arrives; cancel ctx to abandon the wait.
func (d *Desktop) SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error) {
	if len(req.Scopes) == 0 {
		return nil, autherr.Configf("no scopes provided, at least one scope is required for authentication")
	}

	redirectHost, port, err := parseRedirectURI(req.RedirectURI)
	if err != nil {
		return nil, err
	}

	if req.ClientSecret == "" {
		return nil, autherr.Configf("client secret is required for desktop authentication")
	}

	// The listener binds before the authorization URL is built: with an
	// ephemeral port the redirect URI cannot be finalized until the real
	// port is known.
	listener, err := loopback.Bind(port, req.SuccessHTMLResponse)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	redirectURL := listener.RedirectURL(redirectHost)

	verifier := oauth2.GenerateVerifier()
	state, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, autherr.Wrap(autherr.KindIO, "failed to generate state token", err)
	}

	cfg := oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       req.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   d.endpoints.AuthURL,
			TokenURL:  d.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	authURL := cfg.AuthCodeURL(state, authCodeOptions(req, verifier)...)

	if err := browser.Open(authURL); err != nil {
		return nil, err
	}

	log.LogInfoWithFields("desktop", "Awaiting provider redirect", map[string]any{
		"redirectUri": redirectURL,
	})

	callback, err := listener.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if callback.State != state {
		return nil, autherr.Authf("state parameter does not match the value sent")
	}

	token, err := worker.Do("token exchange", func() (*oauth2.Token, error) {
		tok, err := cfg.Exchange(withHardenedClient(ctx), callback.Code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, autherr.Wrap(autherr.KindAuthFailed, "failed to exchange code for token", err)
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}

	log.LogInfoWithFields("desktop", "Sign-in completed", map[string]any{
		"hasRefreshToken": token.RefreshToken != "",
	})

	return normalizeToken(token), nil
}

// SignOut revokes the access token at the provider, best-effort. Without an
// access token it short-circuits: there is nothing to revoke and the caller's
// local session state is what is being torn down.
func (d *Desktop) SignOut(ctx context.Context, req SignOutRequest) (*SignOutResponse, error) {
	if req.AccessToken == "" {
		return &SignOutResponse{Success: true}, nil
	}

	_, err := worker.Do("token revocation", func() (struct{}, error) {
		return struct{}{}, revokeToken(ctx, d.endpoints.RevocationURL, req.AccessToken)
	})
	if err != nil {
		return nil, err
	}
	return &SignOutResponse{Success: true}, nil
}

// RefreshToken exchanges a refresh token for new tokens against the token
// endpoint only; no listener and no browser are involved.
func (d *Desktop) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	if req.ClientSecret == "" {
		return nil, autherr.Configf("client secret is required for desktop authentication")
	}
	if req.RefreshToken == "" {
		return nil, autherr.Configf("no refresh token provided")
	}

	cfg := oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  d.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token, err := worker.Do("token refresh", func() (*oauth2.Token, error) {
		source := cfg.TokenSource(withHardenedClient(ctx), &oauth2.Token{RefreshToken: req.RefreshToken})
		tok, err := source.Token()
		if err != nil {
			return nil, autherr.Wrap(autherr.KindAuthFailed, "failed to refresh token", err)
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return normalizeToken(token), nil
}

// parseRedirectURI validates an optional caller-supplied redirect URI and
// extracts its host and port. An empty URI defaults to localhost with an
// OS-assigned port.
func parseRedirectURI(redirectURI string) (host string, port int, err error) {
	if redirectURI == "" {
		return defaultRedirectHost, 0, nil
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", 0, autherr.Wrap(autherr.KindConfiguration, "invalid redirect URI", err)
	}
	host = u.Hostname()
	if host == "" {
		return "", 0, autherr.Configf("redirect URI must have a host")
	}
	if host != defaultRedirectHost && host != loopbackHost {
		return "", 0, autherr.Configf("redirect URI must use localhost or 127.0.0.1 for desktop authentication")
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, autherr.Wrap(autherr.KindConfiguration, "invalid redirect URI port", err)
		}
	}
	return host, port, nil
}

// authCodeOptions assembles the authorization URL parameters: the S256 PKCE
// challenge, offline access so Google issues a refresh token, and the
// optional provider pass-through parameters.
func authCodeOptions(req SignInRequest, verifier string) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	}
	if req.HostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", req.HostedDomain))
	}
	if req.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", req.LoginHint))
	}
	return opts
}
