package puzzles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Location() string { return s.path }

func (s *FileSource) Load(ctx context.Context, _ LoadOptions) (Set, error) {
	if err := ctx.Err(); err != nil {
		return Set{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer f.Close()
	return Decode(f)
}

type HTTPSource struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewHTTPSource(rawURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: rawURL, client: client, now: time.Now}
}

func (s *HTTPSource) Location() string { return s.url }

func (s *HTTPSource) Load(ctx context.Context, opts LoadOptions) (Set, error) {
	target := s.url
	if opts.Refresh {
		busted, err := cacheBust(target, s.now())
		if err != nil {
			return Set{}, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		target = busted
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.Refresh {
		req.Header.Set("Cache-Control", "no-cache")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Set{}, fmt.Errorf("%w: %s returned %s", ErrFetch, target, resp.Status)
	}
	return Decode(resp.Body)
}

func cacheBust(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewSource picks an HTTP source for http(s) locations and a file source otherwise.
func NewSource(location string, client *http.Client) Source {
	lower := strings.ToLower(strings.TrimSpace(location))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTPSource(strings.TrimSpace(location), client)
	}
	return NewFileSource(location)
}

// Prepare returns the displayable puzzles: valid, newest first, eval change at or above
// MinEvalChange. Puzzles without a parseable timestamp sort last.
func Prepare(set Set) []Puzzle {
	out := make([]Puzzle, 0, len(set.Puzzles))
	for _, p := range set.Puzzles {
		if err := p.Validate(); err != nil {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	filtered := out[:0]
	for _, p := range out {
		if p.EvalChange >= MinEvalChange {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
