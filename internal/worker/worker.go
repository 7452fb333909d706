package worker

import (
	"github.com/dgellow/google-auth/internal/autherr"
	"golang.org/x/sync/errgroup"
)

// Do runs fn on its own goroutine and joins it before returning, so blocking
// provider I/O never runs on the caller's goroutine. A panic on the worker is
// returned as an authentication-failed error instead of crashing the process;
// errgroup re-raises worker panics from Wait, where join recovers them.
func Do[T any](name string, fn func() (T, error)) (T, error) {
	var out T
	var g errgroup.Group
	g.Go(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err := join(name, &g); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func join(name string, g *errgroup.Group) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = autherr.Authf("%s worker panicked: %v", name, r)
		}
	}()
	return g.Wait()
}
