// Package redirect captures the provider-auth redirect for the CLI.
//
// The provider delivers tokens in the URI fragment, which never reaches an
// HTTP server on its own. The catcher therefore serves a relay page on the
// loopback interface that forwards the fragment back, reassembles the
// app-scheme redirect URI and hands it to the listener — the CLI's stand-in
// for the OS deep-link event channel.
package redirect

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Catcher receives the auth redirect on a loopback HTTP server.
type Catcher struct {
	mu       sync.Mutex
	port     int
	scheme   string
	state    string
	urlChan  chan string
	errChan  chan error
	server   *http.Server
	listener net.Listener

	// OnRedirect, when set before Start, is invoked asynchronously with
	// the reassembled redirect URI in addition to the Wait delivery. This
	// reproduces the dual delivery of a real deep link (event channel
	// plus browser return value); the exchanger deduplicates.
	OnRedirect func(uri string)
}

// NewCatcher creates a catcher that reassembles redirect URIs with the
// given app scheme. If port is 0, a random available port is chosen.
func NewCatcher(port int, scheme string) *Catcher {
	return &Catcher{
		port:    port,
		scheme:  scheme,
		state:   uuid.NewString(),
		urlChan: make(chan string, 1),
		errChan: make(chan error, 1),
	}
}

// Start starts the loopback server.
func (c *Catcher) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/", c.handleRelay)
	mux.HandleFunc("/complete", c.handleComplete)

	c.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", c.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	c.listener = listener

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		c.port = tcpAddr.Port
	}

	go func() {
		if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case c.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// handleRelay serves the page the provider redirects to. The tokens are in
// the fragment, invisible to this server, so the page forwards them as
// query parameters to /complete.
func (c *Catcher) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, relayHTML, c.state)
}

// handleComplete receives the forwarded fragment and reassembles the
// app-scheme redirect URI.
func (c *Catcher) handleComplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Validate the state injected into the relay page
	if query.Get("state") != c.state {
		c.deliverErr(fmt.Errorf("state mismatch on redirect completion"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultHTML("Sign-in failed", "Invalid state parameter."))
		return
	}
	query.Del("state")

	uri := c.scheme + "://#" + query.Encode()
	c.deliver(uri)

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, resultHTML("Sign-in complete!", "You can close this window and return to the terminal."))
}

// deliver hands the redirect URI to both consumption paths.
func (c *Catcher) deliver(uri string) {
	c.mu.Lock()
	onRedirect := c.OnRedirect
	c.mu.Unlock()

	if onRedirect != nil {
		go onRedirect(uri)
	}

	select {
	case c.urlChan <- uri:
	default:
	}
}

func (c *Catcher) deliverErr(err error) {
	select {
	case c.errChan <- err:
	default:
	}
}

// Wait blocks until a redirect URI is captured, an error occurs or ctx is
// done. No timeout is imposed here; the flow is bounded only by the user
// and the caller's context.
func (c *Catcher) Wait(ctx context.Context) (string, error) {
	select {
	case uri := <-c.urlChan:
		return uri, nil
	case err := <-c.errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop shuts down the loopback server.
func (c *Catcher) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (c *Catcher) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// RedirectURI returns the loopback redirect target for the authorize URL.
func (c *Catcher) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", c.Port())
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}

// relayHTML forwards the URI fragment to /complete as query parameters.
// The %s placeholder carries the one-time state value.
const relayHTML = `<!DOCTYPE html>
<html>
<head><title>Itsunani - Signing in</title></head>
<body>
<p>Completing sign-in&hellip;</p>
<script>
  var hash = window.location.hash;
  var query = hash ? "&" + hash.substring(1) : "";
  window.location.replace("/complete?state=%s" + query);
</script>
</body>
</html>`

func resultHTML(title, message string) string {
	escapedTitle := html.EscapeString(title)
	escapedMessage := html.EscapeString(message)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Itsunani - Sign In</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
            box-shadow: 0 4px 24px rgba(0,0,0,0.08);
        }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, escapedTitle, escapedMessage)
}
