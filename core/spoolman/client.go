package spoolman

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client talks to the Spoolman REST API and WebSocket feed. It performs
// no filesystem access; its only side effect is network I/O.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a Spoolman client with a bounded request timeout.
func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// BaseURL returns the configured Spoolman base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.cfg.URL, "/")
}

// FetchSnapshot loads vendors, filaments and spools concurrently and joins
// them into a consistent Snapshot. Connection failures are retried with
// exponential backoff; HTTP status and decode failures are not retried.
// Returns *TransportError or *SchemaError on failure.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		vendors   []*Vendor
		filaments []*Filament
		spools    []*Spool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.fetchJSON(gctx, "/api/v1/vendor", &vendors) })
	g.Go(func() error { return c.fetchJSON(gctx, "/api/v1/filament", &filaments) })
	g.Go(func() error { return c.fetchJSON(gctx, "/api/v1/spool", &spools) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Vendors:   make(map[int]*Vendor, len(vendors)),
		Filaments: make(map[int]*Filament, len(filaments)),
	}

	for _, v := range vendors {
		snap.Vendors[v.ID] = v
	}

	// Graft vendors onto filaments that only carry a vendor_id reference.
	for _, f := range filaments {
		if f.Vendor == nil && f.VendorID != 0 {
			f.Vendor = snap.Vendors[f.VendorID]
		}
		snap.Filaments[f.ID] = f
	}

	// Spool payloads may embed their filament or only reference it.
	// Embedded filaments supersede the filament endpoint's copy.
	for _, sp := range spools {
		if sp.Filament != nil {
			if sp.Filament.Vendor == nil && sp.Filament.VendorID != 0 {
				sp.Filament.Vendor = snap.Vendors[sp.Filament.VendorID]
			}
			snap.Filaments[sp.Filament.ID] = sp.Filament
		} else if sp.FilamentID != 0 {
			sp.Filament = snap.Filaments[sp.FilamentID]
		}
	}

	sort.Slice(spools, func(i, j int) bool { return spools[i].ID < spools[j].ID })
	snap.Spools = spools

	c.log.Debug("Fetched inventory snapshot",
		zap.Int("vendors", len(snap.Vendors)),
		zap.Int("filaments", len(snap.Filaments)),
		zap.Int("spools", len(snap.Spools)),
	)

	return snap, nil
}

// fetchJSON performs one GET with retry and decodes the response into out.
func (c *Client) fetchJSON(ctx context.Context, path string, out any) error {
	url := c.BaseURL() + path

	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 8 * time.Second

	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			c.log.Info("Retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
			)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(&TransportError{URL: url, Err: err})
		}
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Connection-level failure: worth retrying.
			return &TransportError{URL: url, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(&TransportError{URL: url, Status: resp.StatusCode})
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(&SchemaError{URL: url, Err: err})
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}
