// Package fetch downloads boot artifacts and templates over plain HTTP GET.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// ChunkSize is the size of each write while streaming a response body to disk.
const ChunkSize = 1024

// DownloadError reports a failed GET. StatusCode is zero when no response was received.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	client := cleanhttp.DefaultClient()
	client.Timeout = timeout

	return &Client{
		http:   client,
		logger: logger.With(slog.String("component", "fetch")),
	}
}

// DownloadFile fetches uri into dir. When filename is empty it is taken from the last
// path segment of uri. The destination only appears once the body was fully written.
func (c *Client) DownloadFile(ctx context.Context, uri, dir, filename string) (string, error) {
	if filename == "" {
		name, err := FilenameFromURL(uri)
		if err != nil {
			return "", err
		}
		filename = name
	}
	destination := filepath.Join(dir, filename)

	c.logger.Debug("downloading file", slog.String("url", uri), slog.String("path", destination))

	res, err := c.get(ctx, uri)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	tempFile, err := os.CreateTemp(dir, "download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	tempPath := tempFile.Name()

	written, err := writeChunks(tempFile, res.Body)
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return "", &DownloadError{URL: uri, Err: err}
	}

	if err := os.Rename(tempPath, destination); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("error moving download into place: %w", err)
	}

	c.logger.Info("downloaded file",
		slog.String("url", uri),
		slog.String("path", destination),
		slog.Int64("bytes", written),
	)

	return destination, nil
}

// FetchText returns the body of uri as a string.
func (c *Client) FetchText(ctx context.Context, uri string) (string, error) {
	res, err := c.get(ctx, uri)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &DownloadError{URL: uri, Err: err}
	}

	return string(body), nil
}

func (c *Client) get(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &DownloadError{URL: uri, Err: err}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: uri, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, &DownloadError{URL: uri, StatusCode: res.StatusCode}
	}

	return res, nil
}

func writeChunks(w io.Writer, r io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, ChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// FilenameFromURL returns the final path segment of uri.
func FilenameFromURL(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", uri, err)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %q has no file name", uri)
	}
	return name, nil
}

// JoinURL joins parts with a single slash, trimming slashes around each part.
func JoinURL(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed = append(trimmed, strings.Trim(part, "/"))
	}
	return strings.Join(trimmed, "/")
}
