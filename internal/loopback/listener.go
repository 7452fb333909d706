package loopback

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/log"
)

const (
	loopbackAddr = "127.0.0.1"

	// DefaultSuccessBody is shown in the browser tab once the redirect lands.
	DefaultSuccessBody = "Go back to your app :)"
)

// Callback holds the query parameters delivered by the provider redirect.
type Callback struct {
	Code  string
	State string
}

// Listener accepts exactly one provider redirect on the loopback interface.
// One listener is live per in-flight sign-in; it never accepts a second
// connection.
type Listener struct {
	ln          net.Listener
	successBody string

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// Bind opens a TCP listener on the loopback interface. Port 0 asks the OS for
// an ephemeral port; the effective port is available from Port before any
// redirect is expected, so the redirect URI can be finalized after binding.
func Bind(port int, successBody string) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", loopbackAddr, port))
	if err != nil {
		if port == 0 {
			return nil, autherr.Wrap(autherr.KindNetwork, "failed to bind to any available port", err)
		}
		return nil, autherr.Wrap(autherr.KindNetwork, fmt.Sprintf("failed to bind to port %d", port), err)
	}
	if successBody == "" {
		successBody = DefaultSuccessBody
	}
	return &Listener{ln: ln, successBody: successBody}, nil
}

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// RedirectURL finalizes the redirect URI for host using the bound port.
func (l *Listener) RedirectURL(host string) string {
	return fmt.Sprintf("http://%s:%d", host, l.Port())
}

// Close stops listening and drops any connection already accepted, so a
// blocked read unwinds too. Safe to call after Wait has already torn down
// the socket.
func (l *Listener) Close() error {
	l.mu.Lock()
	l.closed = true
	conn := l.conn
	l.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return l.ln.Close()
}

// track records the accepted connection for Close. Reports whether the
// listener was closed before the connection could be registered.
func (l *Listener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conn = conn
	return true
}

// Wait blocks until the single redirect arrives, answers it, and returns the
// code and state query parameters. Cancelling ctx closes the listener and
// aborts the wait; with context.Background the wait has no deadline.
func (l *Listener) Wait(ctx context.Context) (Callback, error) {
	type result struct {
		cb  Callback
		err error
	}
	results := make(chan result, 1)
	go func() {
		cb, err := l.acceptOne()
		results <- result{cb, err}
	}()

	select {
	case <-ctx.Done():
		// Closing drops both the listener and an already-accepted
		// connection: a client that connected but never sent a request
		// (browser preconnects do this) must not pin the wait.
		l.Close()
		<-results
		return Callback{}, autherr.Wrap(autherr.KindNetwork, "cancelled while awaiting redirect", ctx.Err())
	case r := <-results:
		return r.cb, r.err
	}
}

// acceptOne serves the one redirect this listener exists for: accept a single
// connection, read the request line, recover the query parameters, answer
// with a 200, and release the socket.
func (l *Listener) acceptOne() (Callback, error) {
	defer l.ln.Close()

	conn, err := l.ln.Accept()
	if err != nil {
		return Callback{}, autherr.Wrap(autherr.KindNetwork, "listener terminated without accepting a connection", err)
	}
	defer conn.Close()

	if !l.track(conn) {
		return Callback{}, autherr.Netf("listener closed while awaiting redirect")
	}

	requestLine, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return Callback{}, autherr.Wrap(autherr.KindIO, "failed to read redirect request", err)
	}

	// Expect "GET <path> HTTP/1.1".
	parts := strings.Fields(requestLine)
	if len(parts) != 3 {
		return Callback{}, autherr.Netf("invalid HTTP request format")
	}

	u, err := url.Parse("http://localhost" + parts[1])
	if err != nil {
		return Callback{}, autherr.Wrap(autherr.KindNetwork, "failed to parse redirect URL", err)
	}

	query := u.Query()
	code := query.Get("code")
	if code == "" {
		return Callback{}, autherr.Authf("authorization code not found in response")
	}
	state := query.Get("state")
	if state == "" {
		return Callback{}, autherr.Authf("state parameter not found in response")
	}

	response := fmt.Sprintf("HTTP/1.1 200 OK\r\ncontent-length: %d\r\n\r\n%s", len(l.successBody), l.successBody)
	if _, err := conn.Write([]byte(response)); err != nil {
		return Callback{}, autherr.Wrap(autherr.KindIO, "failed to write redirect response", err)
	}

	log.LogDebugWithFields("loopback", "Redirect received", map[string]any{
		"port": l.Port(),
	})

	return Callback{Code: code, State: state}, nil
}
