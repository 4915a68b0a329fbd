package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTimeout bounds a whole request including the body transfer
	DefaultTimeout = 10 * time.Minute
	// DefaultConnectTimeout bounds TCP connect and TLS handshake
	DefaultConnectTimeout = 30 * time.Second
	// DefaultResponseHeaderTimeout bounds the wait for response headers
	DefaultResponseHeaderTimeout = 60 * time.Second
	// MaxRedirects is the redirect depth after which a fetch fails
	MaxRedirects = 10
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "agent-telegram-install/1.0"
)

var errTooManyRedirects = errors.New("too many redirects")

// Downloader performs single-attempt HTTP(S) GETs. Redirects are followed
// transparently; there are no automatic retries.
type Downloader struct {
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// NewDownloader creates a new downloader. A nil logger discards output.
func NewDownloader(userAgent string, logger *log.Logger) *Downloader {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   DefaultConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = DefaultConnectTimeout
	transport.ResponseHeaderTimeout = DefaultResponseHeaderTimeout

	return &Downloader{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return errTooManyRedirects
				}
				logger.Debug("following redirect", "to", req.URL.String(), "hop", len(via))
				return nil
			},
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch downloads url to destPath and returns the number of bytes written.
// The body is streamed to destPath+".tmp" and renamed into place, so
// destPath never holds a partial payload; the temp file is removed on
// every failure path.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			return 0, &DownloadFailedError{StatusCode: status, URL: url, Reason: errTooManyRedirects.Error()}
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &DownloadFailedError{StatusCode: resp.StatusCode, URL: url}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &NetworkError{URL: url, Cause: fmt.Errorf("read response body: %w", err)}
	}

	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	d.logger.Debug("fetched", "url", url, "bytes", n)
	return n, nil
}

// IsNotFound reports whether err is a 404 DownloadFailedError.
func IsNotFound(err error) bool {
	var dfe *DownloadFailedError
	return errors.As(err, &dfe) && dfe.StatusCode == http.StatusNotFound
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
