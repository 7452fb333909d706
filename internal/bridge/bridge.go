package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/googleauth"
)

// Method names understood by the platform sign-in plugins.
const (
	MethodSignIn       = "signIn"
	MethodSignOut      = "signOut"
	MethodRefreshToken = "refreshToken"
)

// Runner invokes a platform-native sign-in plugin. The payload and response
// cross an opaque boundary: consent UI and token issuance happen inside the
// platform SDK.
type Runner interface {
	Run(ctx context.Context, method string, payload any) (json.RawMessage, error)
}

// GoogleAuth adapts a platform Runner to the googleauth.Service surface.
type GoogleAuth struct {
	runner Runner
}

var _ googleauth.Service = (*GoogleAuth)(nil)

// New creates a bridge-backed service.
func New(runner Runner) *GoogleAuth {
	return &GoogleAuth{runner: runner}
}

func (g *GoogleAuth) SignIn(ctx context.Context, req googleauth.SignInRequest) (*googleauth.TokenResponse, error) {
	return run[googleauth.TokenResponse](ctx, g.runner, MethodSignIn, req)
}

func (g *GoogleAuth) SignOut(ctx context.Context, req googleauth.SignOutRequest) (*googleauth.SignOutResponse, error) {
	return run[googleauth.SignOutResponse](ctx, g.runner, MethodSignOut, req)
}

func (g *GoogleAuth) RefreshToken(ctx context.Context, req googleauth.RefreshTokenRequest) (*googleauth.TokenResponse, error) {
	return run[googleauth.TokenResponse](ctx, g.runner, MethodRefreshToken, req)
}

func run[T any](ctx context.Context, r Runner, method string, payload any) (*T, error) {
	raw, err := r.Run(ctx, method, payload)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, autherr.Wrap(autherr.KindIO, fmt.Sprintf("failed to decode %s response", method), err)
	}
	return &out, nil
}
