package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	steamBaseURL           = "https://steamcommunity.com"
	steamPriceOverviewPath = "/market/priceoverview/"
	steamListingsPath      = "/market/listings/"
	steamUA                = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

	// DefaultPriceJSONPath selects the lowest listed price of a priceoverview response.
	DefaultPriceJSONPath = "$.lowest_price"
	fallbackJSONPath     = "$.median_price"
)

// SteamOptions configures a SteamMarket. Empty fields take the Steam defaults.
type SteamOptions struct {
	BaseURL       string
	AppID         string
	Currency      string
	PriceJSONPath string
}

// SteamMarket fetches prices from the Steam Community Market priceoverview endpoint.
type SteamMarket struct {
	httpClient    *http.Client
	baseURL       string
	appID         string
	currency      string
	priceJSONPath string
	log           *zap.SugaredLogger
}

// NewSteamMarket creates a new Steam Community Market price source. The
// client's Timeout bounds every request.
func NewSteamMarket(httpClient *http.Client, opts SteamOptions, log *zap.SugaredLogger) *SteamMarket {
	s := &SteamMarket{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		appID:         opts.AppID,
		currency:      opts.Currency,
		priceJSONPath: opts.PriceJSONPath,
		log:           log,
	}
	if s.baseURL == "" {
		s.baseURL = steamBaseURL
	}
	if s.appID == "" {
		s.appID = "730"
	}
	if s.currency == "" {
		s.currency = "1"
	}
	if s.priceJSONPath == "" {
		s.priceJSONPath = DefaultPriceJSONPath
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	return s
}

// Name returns the source's display name.
func (s *SteamMarket) Name() string { return "Steam Community Market" }

// FetchName returns the market hash name of ref. A listing link yields the
// unescaped path segment after /market/listings/<appid>/; anything without a
// scheme is taken to be the name itself.
func (s *SteamMarket) FetchName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if !strings.Contains(ref, "://") {
		return ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	idx := strings.Index(path, steamListingsPath)
	if idx < 0 {
		return ""
	}
	_, escaped, ok := strings.Cut(path[idx+len(steamListingsPath):], "/")
	if !ok {
		return ""
	}
	name, err := url.PathUnescape(strings.TrimSuffix(escaped, "/"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// FetchPrice fetches the current price of ref from the priceoverview endpoint.
func (s *SteamMarket) FetchPrice(ctx context.Context, ref string) (decimal.Decimal, bool) {
	name := s.FetchName(ref)
	if name == "" {
		s.log.Warnw("price unavailable", "ref", ref, "error", "no market name in reference")
		return decimal.Zero, false
	}

	price, err := s.fetch(ctx, name)
	if err != nil {
		s.log.Warnw("price unavailable", "ref", ref, "name", name, "error", err)
		return decimal.Zero, false
	}
	return price, true
}

func (s *SteamMarket) fetch(ctx context.Context, name string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("appid", s.appID)
	q.Set("currency", s.currency)
	q.Set("market_hash_name", name)
	endpoint := s.baseURL + steamPriceOverviewPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", steamUA)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decoding response: %w", err)
	}
	if obj, ok := body.(map[string]any); ok {
		if success, ok := obj["success"].(bool); ok && !success {
			return decimal.Zero, fmt.Errorf("market reported no success")
		}
	}

	raw, err := lookup(s.priceJSONPath, body)
	if err != nil && s.priceJSONPath != fallbackJSONPath {
		raw, err = lookup(fallbackJSONPath, body)
	}
	if err != nil {
		return decimal.Zero, err
	}

	price, err := toDecimal(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price.String())
	}
	return price, nil
}

// lookup evaluates path against body and returns the first non-nil match.
func lookup(path string, body any) (any, error) {
	val, err := jsonpath.Get(path, body)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("no match for %q", path)
		}
		val = list[0]
	}
	if val == nil {
		return nil, fmt.Errorf("no value at %q", path)
	}
	return val, nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return ParsePrice(v)
	default:
		return decimal.Zero, fmt.Errorf("unexpected price type %T", raw)
	}
}

// ParsePrice parses a displayed market price such as "$1,234.56",
// "1.234,56€" or "5,--€". Currency symbols and thousands separators are
// dropped; the right-most separator followed by one or two digits is taken
// as the decimal mark.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, "--", "00")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no digits in price %q", s)
	}

	intPart, fracPart := cleaned, ""
	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 {
		if tail := cleaned[i+1:]; len(tail) <= 2 {
			intPart, fracPart = cleaned[:i], tail
		}
	}
	intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)
	if fracPart != "" {
		intPart += "." + fracPart
	}

	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing price %q: %w", s, err)
	}
	return d, nil
}

// steamCurrencies maps Steam wallet currency ids to ISO 4217 codes.
var steamCurrencies = map[string]string{
	"1":  "USD",
	"2":  "GBP",
	"3":  "EUR",
	"4":  "CHF",
	"5":  "RUB",
	"6":  "PLN",
	"7":  "BRL",
	"8":  "JPY",
	"9":  "NOK",
	"10": "IDR",
	"11": "MYR",
	"12": "PHP",
	"13": "SGD",
	"14": "THB",
	"15": "VND",
	"16": "KRW",
	"17": "TRY",
	"18": "UAH",
	"19": "MXN",
	"20": "CAD",
	"21": "AUD",
	"22": "NZD",
	"23": "CNY",
	"24": "INR",
}

// CurrencyCode returns the ISO 4217 code of a Steam currency id, or "USD"
// for ids it does not know.
func CurrencyCode(steamCurrency string) string {
	if code, ok := steamCurrencies[steamCurrency]; ok {
		return code
	}
	return "USD"
}

// CurrencyCode returns the ISO 4217 code prices are quoted in.
func (s *SteamMarket) CurrencyCode() string { return CurrencyCode(s.currency) }
