package loopback

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Run("ephemeral port", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)
		defer l.Close()

		assert.Greater(t, l.Port(), 0)
		assert.LessOrEqual(t, l.Port(), 65535)
		assert.Equal(t, fmt.Sprintf("http://localhost:%d", l.Port()), l.RedirectURL("localhost"))
	})

	t.Run("explicit port", func(t *testing.T) {
		// Grab a free port, release it, then ask for it explicitly.
		probe, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := probe.Addr().(*net.TCPAddr).Port
		require.NoError(t, probe.Close())

		l, err := Bind(port, "")
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, port, l.Port())
		assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", port), l.RedirectURL("127.0.0.1"))
	})

	t.Run("port already in use", func(t *testing.T) {
		first, err := Bind(0, "")
		require.NoError(t, err)
		defer first.Close()

		_, err = Bind(first.Port(), "")
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindNetwork))
	})
}

func TestWait(t *testing.T) {
	t.Run("single redirect with code and state", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		type response struct {
			status int
			body   string
			err    error
		}
		responses := make(chan response, 1)
		go func() {
			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/?code=abc123&state=xyz", l.Port()))
			if err != nil {
				responses <- response{err: err}
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			responses <- response{status: resp.StatusCode, body: string(body)}
		}()

		cb, err := l.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123", cb.Code)
		assert.Equal(t, "xyz", cb.State)

		r := <-responses
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, DefaultSuccessBody, r.body)
	})

	t.Run("custom success body", func(t *testing.T) {
		l, err := Bind(0, "All done, close this tab.")
		require.NoError(t, err)

		bodies := make(chan string, 1)
		go func() {
			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/?code=c&state=s", l.Port()))
			if err != nil {
				bodies <- ""
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			bodies <- string(body)
		}()

		_, err = l.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "All done, close this tab.", <-bodies)
	})

	t.Run("missing code", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		go func() {
			// The listener drops the connection without a response; the
			// client error is expected and irrelevant.
			_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/?state=xyz", l.Port()))
		}()

		_, err = l.Wait(context.Background())
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindAuthFailed))
		assert.Contains(t, err.Error(), "authorization code not found")
	})

	t.Run("missing state", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		go func() {
			_, _ = http.Get(fmt.Sprintf("http://127.0.0.1:%d/?code=abc123", l.Port()))
		}()

		_, err = l.Wait(context.Background())
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindAuthFailed))
		assert.Contains(t, err.Error(), "state parameter not found")
	})

	t.Run("malformed request line", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		go func() {
			conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", l.Port()))
			if err != nil {
				return
			}
			defer conn.Close()
			_, _ = conn.Write([]byte("GARBAGE\r\n"))
		}()

		_, err = l.Wait(context.Background())
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindNetwork))
		assert.Contains(t, err.Error(), "invalid HTTP request format")
	})

	t.Run("cancellation unwinds a stalled connection", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		// Connect without ever sending a request line, the way browser
		// speculative preconnects do.
		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", l.Port()))
		require.NoError(t, err)
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		results := make(chan error, 1)
		go func() {
			_, err := l.Wait(ctx)
			results <- err
		}()

		select {
		case err := <-results:
			require.Error(t, err)
			assert.True(t, autherr.IsKind(err, autherr.KindNetwork))
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		case <-time.After(3 * time.Second):
			t.Fatal("Wait did not return after cancellation")
		}
	})

	t.Run("context cancellation aborts the wait", func(t *testing.T) {
		l, err := Bind(0, "")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err = l.Wait(ctx)
		require.Error(t, err)
		assert.True(t, autherr.IsKind(err, autherr.KindNetwork))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}
