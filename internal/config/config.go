package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2/google"
)

// GoogleRevocationURL is Google's RFC 7009 token revocation endpoint. The
// authorization and token endpoints come from golang.org/x/oauth2/google.
const GoogleRevocationURL = "https://oauth2.googleapis.com/revoke"

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// Endpoints holds the provider URLs one flow talks to. Injected rather than
// read from globals so tests can point every operation at a mock provider.
type Endpoints struct {
	AuthURL       string
	TokenURL      string
	RevocationURL string
}

// GoogleEndpoints returns Google's OAuth2 endpoints. Each URL can be
// overridden through the environment, which the tests rely on.
func GoogleEndpoints() Endpoints {
	endpoints := Endpoints{
		AuthURL:       google.Endpoint.AuthURL,
		TokenURL:      google.Endpoint.TokenURL,
		RevocationURL: GoogleRevocationURL,
	}
	if authURL := os.Getenv("GOOGLE_OAUTH_AUTH_URL"); authURL != "" {
		endpoints.AuthURL = authURL
	}
	if tokenURL := os.Getenv("GOOGLE_OAUTH_TOKEN_URL"); tokenURL != "" {
		endpoints.TokenURL = tokenURL
	}
	if revocationURL := os.Getenv("GOOGLE_OAUTH_REVOCATION_URL"); revocationURL != "" {
		endpoints.RevocationURL = revocationURL
	}
	return endpoints
}

// Environment carries the process-level client credentials used by the CLI.
// Library callers pass credentials on each request instead.
type Environment struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret Secret `env:"GOOGLE_CLIENT_SECRET"`
}

// LoadEnvironment reads client credentials from the environment.
func LoadEnvironment() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return Environment{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}
