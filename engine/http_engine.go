package engine

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/pagemap/jitter"
	"github.com/use-agent/pagemap/models"
	"golang.org/x/net/html/charset"
)

const (
	// maxBody caps both the raw and the decoded body.
	maxBody = 10 << 20

	preDelayMin = 100 * time.Millisecond
	preDelayMax = 300 * time.Millisecond

	maxRedirects = 10
)

// blockedSuggestion accompanies HTTP status failures.
const blockedSuggestion = "Site may be blocking automated requests. Try JS rendering."

// HTTPEngine is the Fetch Client: a single GET with browser-like headers
// and a Chrome TLS fingerprint. It never retries.
type HTTPEngine struct {
	timeout    time.Duration
	proxy      string
	userAgents []string
	pacer      jitter.Pacer
}

// chromeH1Spec builds a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. utls writes per-connection state (SNI, key shares, GREASE)
// into the spec's extensions, so every connection needs its own copy.
func chromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	// http.Transport cannot speak h2 over a utls connection.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			break
		}
	}
	return &spec, nil
}

// NewHTTPEngine creates an HTTPEngine. userAgents must not be empty.
func NewHTTPEngine(timeout time.Duration, proxy string, userAgents []string, pacer jitter.Pacer) *HTTPEngine {
	return &HTTPEngine{
		timeout:    timeout,
		proxy:      proxy,
		userAgents: userAgents,
		pacer:      pacer,
	}
}

func (e *HTTPEngine) Name() string { return "http" }

// newClient builds a client for one invocation; connections are never
// shared between scrapes.
func (e *HTTPEngine) newClient() *http.Client {
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if e.proxy != "" {
		if proxyURL, err := url.Parse(e.proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// dialTLSChrome establishes a TLS connection using the Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	return handshakeChrome(ctx, conn, host)
}

// handshakeChrome runs the client handshake on conn with a fresh Chrome
// ClientHello for serverName. conn is closed on failure.
func handshakeChrome(ctx context.Context, conn net.Conn, serverName string) (net.Conn, error) {
	spec, err := chromeH1Spec()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: build tls spec: %w", err)
	}
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: serverName}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", e.userAgents[e.pacer.Pick(len(e.userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// Fetch performs the GET. Failures are *models.EngineError values whose
// Message is ready to be recorded as-is.
func (e *HTTPEngine) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if err := e.pacer.Pause(ctx, preDelayMin, preDelayMax); err != nil {
		return nil, e.classify(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, e.classify(err)
	}
	e.setHeaders(httpReq)

	client := e.newClient()
	defer client.CloseIdleConnections()

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, e.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewEngineError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, reasonPhrase(resp)), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, e.classify(err)
	}
	body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, e.classify(err)
	}

	slog.Debug("fetch complete", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))
	return &FetchResult{
		HTML:       body,
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// classify maps a transport failure onto the fetch error codes.
func (e *HTTPEngine) classify(err error) *models.EngineError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewEngineError(models.ErrCodeFetchTimeout,
			fmt.Sprintf("Request timed out after %s", e.timeout), err)
	}
	return models.NewEngineError(models.ErrCodeTransport, "Request failed: "+err.Error(), err)
}

func reasonPhrase(resp *http.Response) string {
	if reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); reason != "" && reason != resp.Status {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// decodeBody undoes Content-Encoding and transcodes to UTF-8.
func decodeBody(raw []byte, encoding, contentType string) (string, error) {
	var r io.Reader = bytes.NewReader(raw)
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		// Servers send both zlib-wrapped and raw deflate under this name.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			r = zr
		} else {
			r = flate.NewReader(bytes.NewReader(raw))
		}
	case "br":
		r = brotli.NewReader(r)
	default:
		return "", fmt.Errorf("unsupported content encoding %q", encoding)
	}

	utf8Reader, err := charset.NewReader(io.LimitReader(r, maxBody), contentType)
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(body), nil
}
