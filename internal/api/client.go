package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// pageLimit is the page size requested from listing endpoints.
const pageLimit = 100

// maxPageFetchers bounds concurrent page fetches within one listing call.
const maxPageFetchers = 4

// retryLogger adapts retryablehttp's leveled logger onto zerolog.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the REST implementation of Source.
//
// Transient failures are retried here by the transport; the engines above
// never retry. Whatever still fails after the retry budget surfaces as one
// of the taxonomy sentinels.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	token      string

	// Progress, when set, receives byte progress for running downloads.
	Progress func(name string, read, total int64)
}

// NewClient creates an API client on top of base (usually from httpx).
func NewClient(base *nethttp.Client, baseURL, token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// page is the envelope of every listing response.
type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Semesters implements Source.
func (c *Client) Semesters(ctx context.Context) ([]Semester, error) {
	return listPaged[Semester](ctx, c, "/semesters", nil)
}

// Courses implements Source.
func (c *Client) Courses(ctx context.Context, semesterID string) ([]Course, error) {
	path := fmt.Sprintf("/semesters/%s/courses", url.PathEscape(semesterID))
	return listPaged[Course](ctx, c, path, nil)
}

// FolderContents implements Source.
func (c *Client) FolderContents(ctx context.Context, courseID, folderID string) (FolderContents, error) {
	if folderID == "" {
		folderID = "root"
	}
	path := fmt.Sprintf("/courses/%s/folders/%s", url.PathEscape(courseID), url.PathEscape(folderID))

	var contents FolderContents
	if err := c.getJSON(ctx, path, nil, &contents); err != nil {
		return FolderContents{}, err
	}
	return contents, nil
}

// ChangedDocuments implements Source.
func (c *Client) ChangedDocuments(ctx context.Context, courseID string, since int64) ([]Document, error) {
	path := fmt.Sprintf("/courses/%s/documents/changed", url.PathEscape(courseID))
	query := url.Values{"since": {fmt.Sprintf("%d", since)}}
	return listPaged[Document](ctx, c, path, query)
}

// Download implements Source. The body streams into a temp file next to
// destPath and lands via rename, so a partial transfer never shadows a
// complete file.
func (c *Client) Download(ctx context.Context, documentID, destPath string) error {
	path := fmt.Sprintf("/documents/%s/download", url.PathEscape(documentID))

	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	var src io.Reader = resp.Body
	if c.Progress != nil && resp.ContentLength > 0 {
		src = &progressReader{
			r:     resp.Body,
			total: resp.ContentLength,
			name:  filepath.Base(destPath),
			fn:    c.Progress,
		}
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("download of %s interrupted: %w", documentID, ErrConnection)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finish temp file: %w", err)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// listPaged fetches the first page synchronously and the remaining pages
// concurrently, preserving server order in the assembled result.
func listPaged[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}

	first, err := getPage[T](ctx, c, path, query, 0)
	if err != nil {
		return nil, err
	}
	if len(first.Items) >= first.Total {
		return first.Items, nil
	}

	pageCount := (first.Total + pageLimit - 1) / pageLimit
	pages := make([][]T, pageCount)
	pages[0] = first.Items

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPageFetchers)
	for i := 1; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			p, err := getPage[T](gctx, c, path, query, i*pageLimit)
			if err != nil {
				return err
			}
			pages[i] = p.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]T, 0, first.Total)
	for _, p := range pages {
		items = append(items, p...)
	}
	return items, nil
}

func getPage[T any](ctx context.Context, c *Client, path string, query url.Values, offset int) (page[T], error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", pageLimit))

	var p page[T]
	if err := c.getJSON(ctx, path, q, &p); err != nil {
		return page[T]{}, err
	}
	return p, nil
}

// getJSON performs a GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response for %s: %w", path, err)
	}
	return nil
}

// get performs an authenticated GET and maps the HTTP status onto the error
// taxonomy. The caller owns the response body on success.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*nethttp.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, ErrConnection)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case nethttp.StatusForbidden:
		return nil, fmt.Errorf("%s: %w", path, ErrForbidden)
	case nethttp.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		return nil, fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, ErrConnection)
	}
}

// progressReader reports cumulative read progress to a callback.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	name  string
	fn    func(name string, read, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.name, p.read, p.total)
	}
	return n, err
}
