package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/googleauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the invocation and plays back a canned response,
// standing in for the platform plugin.
type fakeRunner struct {
	method   string
	payload  any
	response json.RawMessage
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	f.method = method
	f.payload = payload
	return f.response, f.err
}

func TestGoogleAuthBridge(t *testing.T) {
	t.Run("sign in", func(t *testing.T) {
		runner := &fakeRunner{
			response: json.RawMessage(`{"accessToken":"native-token","scopes":["openid"],"idToken":"native-id"}`),
		}
		auth := New(runner)

		req := googleauth.SignInRequest{ClientID: "cid", Scopes: []string{"openid"}}
		resp, err := auth.SignIn(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, MethodSignIn, runner.method)
		assert.Equal(t, req, runner.payload)
		assert.Equal(t, "native-token", resp.AccessToken)
		assert.Equal(t, "native-id", resp.IDToken)
		assert.Equal(t, []string{"openid"}, resp.Scopes)
	})

	t.Run("sign out", func(t *testing.T) {
		runner := &fakeRunner{response: json.RawMessage(`{"success":true}`)}
		auth := New(runner)

		resp, err := auth.SignOut(context.Background(), googleauth.SignOutRequest{AccessToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, MethodSignOut, runner.method)
		assert.True(t, resp.Success)
	})

	t.Run("refresh token", func(t *testing.T) {
		runner := &fakeRunner{response: json.RawMessage(`{"accessToken":"new-token","scopes":[]}`)}
		auth := New(runner)

		resp, err := auth.RefreshToken(context.Background(), googleauth.RefreshTokenRequest{RefreshToken: "rt"})
		require.NoError(t, err)
		assert.Equal(t, MethodRefreshToken, runner.method)
		assert.Equal(t, "new-token", resp.AccessToken)
	})

	t.Run("plugin error passes through", func(t *testing.T) {
		sentinel := errors.New("user cancelled the sign-in flow")
		auth := New(&fakeRunner{err: sentinel})

		_, err := auth.SignIn(context.Background(), googleauth.SignInRequest{})
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("malformed plugin response", func(t *testing.T) {
		auth := New(&fakeRunner{response: json.RawMessage(`not json`)})

		_, err := auth.SignIn(context.Background(), googleauth.SignInRequest{})
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindIO))
	})
}
