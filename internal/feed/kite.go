package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "options-engine/internal/errors"
	"options-engine/internal/models"
)

// Kite's quote endpoint accepts at most this many instruments per call.
const kiteQuoteBatchSize = 500

const vixInstrument = "NSE:INDIA VIX"

// KiteFeed fetches live chains from Zerodha Kite Connect.
type KiteFeed struct {
	client        *kiteconnect.Client
	apiKey        string
	apiSecret     string
	sessionPath   string
	authenticated bool
	mu            sync.RWMutex
}

// KiteConfig holds Kite Connect credentials.
type KiteConfig struct {
	APIKey      string
	APISecret   string
	AccessToken string
	SessionPath string
}

// NewKiteFeed creates a KiteFeed and loads any persisted session.
func NewKiteFeed(cfg KiteConfig) *KiteFeed {
	client := kiteconnect.New(cfg.APIKey)

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		home, _ := os.UserHomeDir()
		sessionPath = filepath.Join(home, ".config", "options-engine", "session.json")
	}

	f := &KiteFeed{
		client:      client,
		apiKey:      cfg.APIKey,
		apiSecret:   cfg.APISecret,
		sessionPath: sessionPath,
	}

	if cfg.AccessToken != "" {
		client.SetAccessToken(cfg.AccessToken)
		f.authenticated = true
	} else {
		_ = f.loadSession()
	}
	return f
}

type sessionData struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginURL returns the Kite OAuth URL the user must visit.
func (f *KiteFeed) LoginURL() string {
	return f.client.GetLoginURL()
}

// CompleteLogin exchanges the OAuth request token for a session and
// persists it.
func (f *KiteFeed) CompleteLogin(ctx context.Context, requestToken string) error {
	session, err := f.client.GenerateSession(requestToken, f.apiSecret)
	if err != nil {
		return fmt.Errorf("generating session: %w", err)
	}

	f.mu.Lock()
	f.authenticated = true
	f.client.SetAccessToken(session.AccessToken)
	f.mu.Unlock()

	if err := f.saveSession(session.AccessToken); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a usable session is loaded.
func (f *KiteFeed) IsAuthenticated() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.authenticated
}

func (f *KiteFeed) loadSession() error {
	data, err := os.ReadFile(f.sessionPath)
	if err != nil {
		return err
	}

	var session sessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	if time.Now().After(session.ExpiresAt) {
		return fmt.Errorf("session expired")
	}

	f.mu.Lock()
	f.authenticated = true
	f.client.SetAccessToken(session.AccessToken)
	f.mu.Unlock()
	return nil
}

func (f *KiteFeed) saveSession(accessToken string) error {
	if err := os.MkdirAll(filepath.Dir(f.sessionPath), 0700); err != nil {
		return err
	}

	// Kite tokens expire at 6 AM IST the next day.
	loc, _ := time.LoadLocation("Asia/Kolkata")
	now := time.Now().In(loc)
	expiresAt := time.Date(now.Year(), now.Month(), now.Day()+1, 6, 0, 0, 0, loc)

	data, err := json.Marshal(sessionData{AccessToken: accessToken, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return os.WriteFile(f.sessionPath, data, 0600)
}

// Chain fetches spot, VIX and every option quote for the given
// underlying and expiry.
func (f *KiteFeed) Chain(ctx context.Context, symbol string, expiry time.Time) (*ChainData, error) {
	if !f.IsAuthenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}

	spotQuotes, err := f.client.GetQuote(fmt.Sprintf("NSE:%s", spotSymbol(symbol)), vixInstrument)
	if err != nil {
		return nil, apperrors.NewDataError("spot", symbol, "fetching spot and VIX", err)
	}
	spot := spotQuotes[fmt.Sprintf("NSE:%s", spotSymbol(symbol))].LastPrice
	vix := spotQuotes[vixInstrument].LastPrice

	instruments, err := f.client.GetInstruments()
	if err != nil {
		return nil, apperrors.NewDataError("instruments", symbol, "fetching instrument dump", err)
	}

	type contract struct {
		tradingSymbol string
		strike        float64
		typ           models.OptionType
		lotSize       int
	}
	var contracts []contract
	for _, inst := range instruments {
		if inst.Name != symbol || inst.Segment != "NFO-OPT" {
			continue
		}
		if !sameDay(inst.Expiry.Time, expiry) {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		contracts = append(contracts, contract{
			tradingSymbol: inst.Tradingsymbol,
			strike:        inst.StrikePrice,
			typ:           models.OptionType(inst.InstrumentType),
			lotSize:       int(inst.LotSize),
		})
	}
	if len(contracts) == 0 {
		return nil, apperrors.NewDataError("chain", symbol, "no contracts for expiry", apperrors.ErrDataNotFound)
	}

	asOf := time.Now()
	byInstrument := make(map[string]contract, len(contracts))
	var quotes []models.Quote

	for start := 0; start < len(contracts); start += kiteQuoteBatchSize {
		end := start + kiteQuoteBatchSize
		if end > len(contracts) {
			end = len(contracts)
		}

		batch := make([]string, 0, end-start)
		for _, c := range contracts[start:end] {
			key := fmt.Sprintf("NFO:%s", c.tradingSymbol)
			byInstrument[key] = c
			batch = append(batch, key)
		}

		kiteQuotes, err := f.client.GetQuote(batch...)
		if err != nil {
			return nil, apperrors.NewDataError("chain", symbol, "fetching option quotes", err)
		}

		for key, kq := range kiteQuotes {
			c, ok := byInstrument[key]
			if !ok {
				continue
			}
			q := models.Quote{
				Symbol:    symbol,
				Expiry:    expiry,
				Strike:    c.strike,
				Type:      c.typ,
				LTP:       kq.LastPrice,
				Volume:    int64(kq.Volume),
				OI:        int64(kq.OI),
				LotSize:   c.lotSize,
				Timestamp: asOf,
			}
			if len(kq.Depth.Buy) > 0 {
				q.Bid = kq.Depth.Buy[0].Price
			}
			if len(kq.Depth.Sell) > 0 {
				q.Ask = kq.Depth.Sell[0].Price
			}
			quotes = append(quotes, q)
		}
	}

	return &ChainData{
		Symbol: symbol,
		Expiry: expiry,
		Spot:   spot,
		VIX:    vix,
		AsOf:   asOf,
		Quotes: quotes,
	}, nil
}

// spotSymbol maps the derivatives underlying name to its NSE index
// quote symbol.
func spotSymbol(symbol string) string {
	switch symbol {
	case "NIFTY":
		return "NIFTY 50"
	case "BANKNIFTY":
		return "NIFTY BANK"
	default:
		return symbol
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
