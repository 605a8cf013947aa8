package catalogpix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decode-and-reject: gif must be identified to be refused
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // decode-and-reject
)

// Pipeline failure sentinels. Matched with errors.Is; all are non-retryable
// except ErrDownloadFailed, which is the terminal form of exhausted retries.
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrUnsupportedFormat      = errors.New("unsupported image format")
	ErrDownloadFailed         = errors.New("download failed")
	ErrCapReached             = errors.New("image cap reached")
	ErrDuplicate              = errors.New("duplicate image")
	ErrQualityRejected        = errors.New("quality rejected")
)

// Outcome classifies the result of one candidate URL for counting.
type Outcome int

const (
	OutcomeKept Outcome = iota
	OutcomeFilteredURL
	OutcomeUnsupportedContentType
	OutcomeUnsupportedFormat
	OutcomeDownloadFailed
	OutcomeCapReached
	OutcomeDuplicate
	OutcomeQualityRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeKept:
		return "kept"
	case OutcomeFilteredURL:
		return "filtered_url"
	case OutcomeUnsupportedContentType:
		return "unsupported_content_type"
	case OutcomeUnsupportedFormat:
		return "unsupported_format"
	case OutcomeDownloadFailed:
		return "download_failed"
	case OutcomeCapReached:
		return "cap_reached"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeQualityRejected:
		return "quality_rejected"
	default:
		return "unknown"
	}
}

// outcomeForError maps a pipeline error to its Outcome.
func outcomeForError(err error) Outcome {
	switch {
	case errors.Is(err, ErrUnsupportedContentType):
		return OutcomeUnsupportedContentType
	case errors.Is(err, ErrUnsupportedFormat):
		return OutcomeUnsupportedFormat
	case errors.Is(err, ErrCapReached):
		return OutcomeCapReached
	case errors.Is(err, ErrDuplicate):
		return OutcomeDuplicate
	case errors.Is(err, ErrQualityRejected):
		return OutcomeQualityRejected
	default:
		return OutcomeDownloadFailed
	}
}

// backoffDelay returns the retry delay after attempt n (1-based), a pure
// function of the attempt number: base * multiplier^(n-1), capped.
func (cfg *Config) backoffDelay(attempt int) time.Duration {
	d := time.Duration(float64(cfg.BackoffBase) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1)))
	if d <= 0 || d > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return d
}

// statusError carries a non-200 HTTP status through the retry loop.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("http status %d", e.code) }

// isTransient reports whether a fetch error is worth retrying.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// download fetches and decodes one candidate URL: content-type probe, body
// fetch with retry and exponential backoff, then the format gate.
func (cfg *Config) download(ctx context.Context, rawURL string) (*FetchedImage, error) {
	if !cfg.SkipProbe {
		if err := cfg.probeContentType(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	var (
		data []byte
		ct   string
		err  error
	)
	for attempt := 1; ; attempt++ {
		data, ct, err = cfg.fetchBytes(ctx, rawURL)
		if err == nil {
			break
		}
		if errors.Is(err, ErrUnsupportedContentType) {
			return nil, err
		}
		if attempt > cfg.RetryAttempts || !isTransient(err) {
			return nil, fmt.Errorf("%w: %s after %d attempt(s): %v", ErrDownloadFailed, rawURL, attempt, err)
		}
		select {
		case <-time.After(cfg.backoffDelay(attempt)):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, ctx.Err())
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable body from %s: %v", ErrUnsupportedFormat, rawURL, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	b := img.Bounds()
	return &FetchedImage{
		Data:                data,
		DeclaredContentType: ct,
		Format:              format,
		Width:               b.Dx(),
		Height:              b.Dy(),
		Image:               img,
	}, nil
}

// probeContentType issues a lightweight GET (headers only, body closed
// unread — many image CDNs reject HEAD) and fails fast when the declared
// content type is present and not jpeg/png. Probe transport failures are
// ignored: the full fetch gets to decide.
func (cfg *Config) probeContentType(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	ct := stripMIMEParams(resp.Header.Get("Content-Type"))
	if ct != "" && ct != "image/jpeg" && ct != "image/png" {
		return fmt.Errorf("%w: probe declared %q for %s", ErrUnsupportedContentType, ct, rawURL)
	}
	return nil
}

// fetchBytes retrieves the full body. Tries cfg.StealthClient first (if
// set), falls back to cfg.HTTPClient.
func (cfg *Config) fetchBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	if cfg.StealthClient != nil {
		if data, ct, err := cfg.fetchOnce(ctx, cfg.StealthClient, rawURL); err == nil {
			return data, ct, nil
		}
	}
	return cfg.fetchOnce(ctx, cfg.HTTPClient, rawURL)
}

func (cfg *Config) fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req) //nolint:gosec // G107: URL comes from the candidate source
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &statusError{code: resp.StatusCode}
	}

	ct := stripMIMEParams(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, "", fmt.Errorf("%w: body declared %q", ErrUnsupportedContentType, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBytes))
	if err != nil {
		return nil, "", err
	}
	if len(data) < cfg.MinBytes {
		return nil, "", fmt.Errorf("body too small: %d bytes", len(data))
	}
	return data, ct, nil
}

// stripMIMEParams reduces "image/jpeg; charset=utf-8" to "image/jpeg".
func stripMIMEParams(ct string) string {
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(ct)
}
