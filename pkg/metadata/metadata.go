// Package metadata looks up airframe details by ICAO 24-bit address.
//
// Lookups go to the adsbdb API (https://www.adsbdb.com) and are cached,
// including misses, so each airframe is fetched at most once per TTL.
// The details are only used to style markers and never feed prediction.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/unklstewy/planefinder/pkg/config"
)

const (
	// DefaultBaseURL is the adsbdb v0 API
	DefaultBaseURL = "https://api.adsbdb.com/v0"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second
)

// ErrNotFound is returned when adsbdb has no record of an airframe.
var ErrNotFound = errors.New("aircraft not found")

// Aircraft holds the registry details of one airframe.
type Aircraft struct {
	ICAO         string `json:"icao"`
	Registration string `json:"registration"`
	Model        string `json:"model"`
	TypeCode     string `json:"type_code"`
	Manufacturer string `json:"manufacturer"`
	Owner        string `json:"owner"`
	OwnerCountry string `json:"owner_country"`
	OperatorFlag string `json:"operator_flag"`
	Military     bool   `json:"military"`
}

type cacheEntry struct {
	aircraft Aircraft
	found    bool
}

// Client is a cached, rate-limited adsbdb client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cache       *expirable.LRU[string, cacheEntry]
}

// NewClient creates a client from the metadata configuration.
func NewClient(cfg config.MetadataConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:       expirable.NewLRU[string, cacheEntry](size, nil, ttl),
	}
}

type adsbdbResponse struct {
	Response struct {
		Aircraft struct {
			Type                    string `json:"type"`
			ICAOType                string `json:"icao_type"`
			Manufacturer            string `json:"manufacturer"`
			ModeS                   string `json:"mode_s"`
			Registration            string `json:"registration"`
			RegisteredOwner         string `json:"registered_owner"`
			RegisteredOwnerCountry  string `json:"registered_owner_country_name"`
			RegisteredOwnerFlagCode string `json:"registered_owner_operator_flag_code"`
		} `json:"aircraft"`
	} `json:"response"`
}

// Lookup returns the details of the airframe with the given ICAO address.
// Unknown airframes return ErrNotFound; that answer is cached like a hit.
// Transport failures are not cached.
func (c *Client) Lookup(ctx context.Context, icao string) (Aircraft, error) {
	key := strings.ToLower(strings.TrimSpace(icao))
	if key == "" {
		return Aircraft{}, ErrNotFound
	}

	if entry, ok := c.cache.Get(key); ok {
		if !entry.found {
			return Aircraft{}, ErrNotFound
		}
		return entry.aircraft, nil
	}

	ac, err := c.fetch(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		c.cache.Add(key, cacheEntry{})
		return Aircraft{}, err
	case err != nil:
		return Aircraft{}, err
	}

	c.cache.Add(key, cacheEntry{aircraft: ac, found: true})
	return ac, nil
}

// Cached reports whether a lookup for icao would be served from the cache.
func (c *Client) Cached(icao string) bool {
	return c.cache.Contains(strings.ToLower(strings.TrimSpace(icao)))
}

func (c *Client) fetch(ctx context.Context, icao string) (Aircraft, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Aircraft{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/aircraft/"+icao, nil)
	if err != nil {
		return Aircraft{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Aircraft{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Aircraft{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Aircraft{}, fmt.Errorf("adsbdb returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded adsbdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Aircraft{}, fmt.Errorf("failed to decode response: %w", err)
	}

	raw := decoded.Response.Aircraft
	ac := Aircraft{
		ICAO:         icao,
		Registration: raw.Registration,
		Model:        raw.Type,
		TypeCode:     raw.ICAOType,
		Manufacturer: raw.Manufacturer,
		Owner:        raw.RegisteredOwner,
		OwnerCountry: raw.RegisteredOwnerCountry,
		OperatorFlag: raw.RegisteredOwnerFlagCode,
	}
	ac.Military = IsMilitary(ac)
	return ac, nil
}

// militaryOwners are owner name fragments used by armed forces registrations.
var militaryOwners = []string{
	"air force",
	"navy",
	"army",
	"military",
	"marine corps",
	"luftwaffe",
	"armee de l'air",
	"defence",
	"defense",
	"coast guard",
}

// IsMilitary guesses whether an airframe is operated by armed forces from
// its registered owner.
func IsMilitary(ac Aircraft) bool {
	owner := strings.ToLower(ac.Owner)
	for _, fragment := range militaryOwners {
		if strings.Contains(owner, fragment) {
			return true
		}
	}
	return false
}
