// Package fetcher retrieves OpenAPI documents from URLs, files, or stdin.
//
// Remote fetches are bounded by a timeout and retried once on transient
// failures (transport errors, timeouts, HTTP 429 and 5xx). Every failure is
// reported as an *oaserrors.FetchError.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erraggy/oasprep"
	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/erraggy/oasprep/oaslog"
)

const (
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultRetries is the number of extra attempts after a transient failure.
	DefaultRetries = 1
	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = time.Second
	// DefaultMaxBodyBytes caps the response size.
	DefaultMaxBodyBytes int64 = 64 << 20
	// StdinSource selects standard input in Load.
	StdinSource = "-"
)

const acceptHeader = "application/json, application/yaml;q=0.9, */*;q=0.1"

// Fetcher retrieves documents. The zero value is usable; New sets the defaults
// explicitly.
type Fetcher struct {
	// HTTPClient is used for requests. When nil, a client with Timeout is created.
	HTTPClient *http.Client
	// Timeout bounds each attempt. Zero uses DefaultTimeout.
	Timeout time.Duration
	// Retries is the number of extra attempts after a transient failure.
	Retries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
	// MaxBodyBytes caps the response size. Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// UserAgent is sent with every request. Empty uses oasprep.UserAgent().
	UserAgent string
	// InsecureSkipVerify disables TLS certificate verification.
	// It is ignored when HTTPClient is set.
	InsecureSkipVerify bool
	// Logger receives retry and progress messages.
	Logger oaslog.Logger
	// Stdin is read when the source is "-". Nil uses os.Stdin.
	Stdin io.Reader
}

// New returns a Fetcher with the default timeout, retry, and size limits.
func New() *Fetcher {
	return &Fetcher{
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		RetryDelay:   DefaultRetryDelay,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads and parses a document from a URL, a file path, or "-" for stdin.
func (f *Fetcher) Load(ctx context.Context, source string) (*document.Document, error) {
	data, err := f.LoadBytes(ctx, source)
	if err != nil {
		return nil, err
	}
	name := source
	if source == StdinSource {
		name = "<stdin>"
	}
	return document.Parse(data, name)
}

// LoadBytes reads the raw bytes of a document from a URL, a file path, or "-".
func (f *Fetcher) LoadBytes(ctx context.Context, source string) ([]byte, error) {
	switch {
	case IsURL(source):
		return f.FetchBytes(ctx, source)
	case source == StdinSource:
		in := f.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := f.readLimited(in)
		if err != nil {
			return nil, &oaserrors.FetchError{URL: "<stdin>", Attempts: 1, Message: "failed to read stdin", Cause: err}
		}
		return data, nil
	default:
		data, err := os.ReadFile(source) //nolint:gosec // G304 - path is user-provided input
		if err != nil {
			return nil, &oaserrors.FetchError{URL: source, Attempts: 1, Message: "failed to read file", Cause: err}
		}
		return data, nil
	}
}

// Fetch retrieves and parses the document at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*document.Document, error) {
	data, err := f.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return document.Parse(data, url)
}

// FetchBytes retrieves the body at url, retrying transient failures.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	maxAttempts := 1 + max(f.Retries, 0)
	for attempt := 1; ; attempt++ {
		start := time.Now()
		data, status, err := f.attempt(ctx, url)
		if err == nil {
			f.log().Debug("fetched document", "url", url, "bytes", len(data), "attempt", attempt, "elapsed", time.Since(start))
			return data, nil
		}

		fetchErr := &oaserrors.FetchError{
			URL:        url,
			StatusCode: status,
			Attempts:   attempt,
			Timeout:    isTimeout(err),
		}
		var se *statusError
		if errors.As(err, &se) {
			fetchErr.Message = se.Error()
		} else {
			fetchErr.Cause = err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			fetchErr.Timeout = fetchErr.Timeout || errors.Is(ctxErr, context.DeadlineExceeded)
			return nil, fetchErr
		}
		if attempt >= maxAttempts || !retryable(status, err) {
			return nil, fetchErr
		}

		f.log().Warn("fetch failed, retrying", "url", url, "attempt", attempt, "error", err)
		timer := time.NewTimer(f.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			fetchErr.Cause = ctx.Err()
			fetchErr.Timeout = errors.Is(ctx.Err(), context.DeadlineExceeded)
			return nil, fetchErr
		case <-timer.C:
		}
	}
}

// statusError reports a non-2xx response.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.status)
}

var errBodyTooLarge = errors.New("response body exceeds size limit")

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, int, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	userAgent := f.UserAgent
	if userAgent == "" {
		userAgent = oasprep.UserAgent()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client(timeout).Do(req) //nolint:gosec // G107 - URL is user-provided input
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func (f *Fetcher) client(timeout time.Duration) *http.Client {
	if f.HTTPClient != nil {
		if f.InsecureSkipVerify {
			f.log().Warn("InsecureSkipVerify ignored when HTTPClient provided; configure TLS on your client's transport")
		}
		return f.HTTPClient
	}
	if f.InsecureSkipVerify {
		return &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested insecure mode
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
	}
	return &http.Client{Timeout: timeout}
}

func (f *Fetcher) log() oaslog.Logger {
	return oaslog.OrNop(f.Logger)
}

func retryable(status int, err error) bool {
	if errors.Is(err, errBodyTooLarge) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
