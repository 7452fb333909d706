package command

import (
	"context"
	"encoding/json"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/bridge"
	"github.com/dgellow/google-auth/internal/googleauth"
	"github.com/dgellow/google-auth/internal/log"
)

// Dispatcher routes plugin method calls carrying JSON payloads onto a
// googleauth.Service. It is the boundary the hosting application talks to.
type Dispatcher struct {
	service googleauth.Service
}

// NewDispatcher creates a dispatcher for the given service implementation.
func NewDispatcher(service googleauth.Service) *Dispatcher {
	return &Dispatcher{service: service}
}

// Dispatch decodes payload for the named method, runs the flow, and returns
// the encoded response. Every failure is a typed error.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, payload json.RawMessage) (json.RawMessage, error) {
	log.LogDebugWithFields("command", "Dispatching method", map[string]any{
		"method": method,
	})

	switch method {
	case bridge.MethodSignIn:
		return invoke(ctx, method, payload, d.service.SignIn)
	case bridge.MethodSignOut:
		return invoke(ctx, method, payload, d.service.SignOut)
	case bridge.MethodRefreshToken:
		return invoke(ctx, method, payload, d.service.RefreshToken)
	default:
		return nil, autherr.Configf("unknown method %q", method)
	}
}

func invoke[Req, Resp any](ctx context.Context, method string, payload json.RawMessage, fn func(context.Context, Req) (*Resp, error)) (json.RawMessage, error) {
	var req Req
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, autherr.Wrap(autherr.KindConfiguration, "invalid "+method+" payload", err)
		}
	}

	resp, err := fn(ctx, req)
	if err != nil {
		log.LogErrorWithFields("command", "Method failed", map[string]any{
			"method": method,
			"error":  err.Error(),
		})
		return nil, err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindIO, "failed to encode "+method+" response", err)
	}
	return out, nil
}
