package openfoodfacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

// searchResponse is the minimal shape of the legacy search endpoint.
type searchResponse struct {
	Count    int       `json:"count"`
	Products []product `json:"products"`
}

type product struct {
	ProductName string     `json:"product_name"`
	Brands      string     `json:"brands"`
	ServingSize string     `json:"serving_size"`
	Nutriments  nutriments `json:"nutriments"`
}

type nutriments struct {
	EnergyKcal    nutrient `json:"energy-kcal_100g"`
	Proteins      nutrient `json:"proteins_100g"`
	Carbohydrates nutrient `json:"carbohydrates_100g"`
	Sugars        nutrient `json:"sugars_100g"`
	Fat           nutrient `json:"fat_100g"`
	SaturatedFat  nutrient `json:"saturated-fat_100g"`
	Fiber         nutrient `json:"fiber_100g"`
	Salt          nutrient `json:"salt_100g"`
}

// nutrient accepts both JSON numbers and numeric strings; the database
// returns either depending on how the product was contributed.
type nutrient struct {
	value *float64
}

func (n *nutrient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var num json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		num = json.Number(strings.TrimSpace(s))
	} else {
		num = json.Number(data)
	}
	v, err := strconv.ParseFloat(num.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Not a finite number; treat as absent.
		return nil
	}
	n.value = &v
	return nil
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openfoodfacts: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client looks up nutrition facts in the Open Food Facts database.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header, which Open Food Facts asks API
// consumers to identify themselves with.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		userAgent:  "nutrition-agent/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func searchURL(baseURL, food string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	q := url.Values{}
	q.Set("search_terms", food)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", "1")
	return base + "/cgi/search.pl?" + q.Encode()
}

// Lookup returns the facts for the first product matching food. Zero matches
// is reported through LookupResult.Found, not as an error.
func (c *Client) Lookup(ctx context.Context, food string) (domain.LookupResult, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return domain.LookupResult{}, errors.New("openfoodfacts: food must not be empty")
	}

	u := searchURL(c.baseURL, food)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("openfoodfacts: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	raw, err := c.doJSONRequest(req, u)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("openfoodfacts: request failed: %w", err)
	}

	var payload searchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.LookupResult{}, fmt.Errorf("openfoodfacts: decode response: %w", err)
	}
	if len(payload.Products) == 0 {
		return domain.LookupResult{Query: food}, nil
	}

	p := payload.Products[0]
	return domain.LookupResult{
		Query: food,
		Record: &domain.NutritionRecord{
			Name:          strings.TrimSpace(p.ProductName),
			Brand:         strings.TrimSpace(p.Brands),
			ServingSize:   strings.TrimSpace(p.ServingSize),
			Calories:      p.Nutriments.EnergyKcal.value,
			Protein:       p.Nutriments.Proteins.value,
			Carbohydrates: p.Nutriments.Carbohydrates.value,
			Sugars:        p.Nutriments.Sugars.value,
			Fat:           p.Nutriments.Fat.value,
			SaturatedFat:  p.Nutriments.SaturatedFat.value,
			Fiber:         p.Nutriments.Fiber.value,
			Salt:          p.Nutriments.Salt.value,
		},
	}, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
