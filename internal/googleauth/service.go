package googleauth

import "context"

// Service is the operation surface shared by the desktop loopback flow and
// the mobile platform bridge. One call runs one complete flow; no state
// persists across calls.
type Service interface {
	SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error)
	SignOut(ctx context.Context, req SignOutRequest) (*SignOutResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
}
