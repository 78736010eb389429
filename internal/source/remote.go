package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"koken/internal/logging"
	"koken/internal/recipe"
)

const userAgent = "koken/1 (+recipe browser)"

// Entry is one item of a directory listing in the GitHub contents API
// shape.
type Entry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Documents keeps the file entries whose name ends with ext.
func Documents(entries []Entry, ext string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Type == "dir" {
			continue
		}
		if !strings.HasSuffix(e.Name, ext) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Remote loads recipes from a listing endpoint that links to one JSON
// document per recipe.
type Remote struct {
	ListingURL string
	Extension  string
	// Limit caps concurrent document fetches; 0 means no cap.
	Limit  int
	Client *http.Client
}

func NewRemote(listingURL, ext string, timeout time.Duration) *Remote {
	return &Remote{
		ListingURL: listingURL,
		Extension:  ext,
		Client:     httpClient(timeout),
	}
}

func httpClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (r *Remote) Name() string { return r.ListingURL }

func (r *Remote) Fetch(ctx context.Context) ([]recipe.RawRecord, error) {
	start := time.Now()

	var entries []Entry
	if err := r.getJSON(ctx, r.ListingURL, &entries); err != nil {
		return nil, &LoadError{Op: "list", Ref: r.ListingURL, Err: err}
	}
	docs := Documents(entries, r.Extension)

	refs := make([]string, len(docs))
	for i, d := range docs {
		if d.DownloadURL == "" {
			return nil, &LoadError{Op: "list", Ref: d.Name, Err: fmt.Errorf("entry has no download url")}
		}
		refs[i] = d.DownloadURL
	}

	records, err := fetchAll(ctx, refs, r.Limit, func(ctx context.Context, ref string) (recipe.RawRecord, error) {
		var rec recipe.RawRecord
		if err := r.getJSON(ctx, ref, &rec); err != nil {
			return recipe.RawRecord{}, &LoadError{Op: "fetch", Ref: ref, Err: err}
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("listing", r.ListingURL).
		Int("listed", len(entries)).
		Int("recipes", len(records)).
		Dur("took", time.Since(start)).
		Msg("recipes fetched")
	return records, nil
}

func (r *Remote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func (r *Remote) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
