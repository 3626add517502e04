package platform

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"alex/internal/balance"
	"alex/internal/market"
	"alex/internal/order"
)

const (
	mbTickerURL = "https://www.mercadobitcoin.net/api/%s/ticker/"
	mbTapiURL   = "https://www.mercadobitcoin.net/tapi/v3/"
	mbTapiPath  = "/tapi/v3/"
)

// MercadoBitcoin trades the coin against BRL on Mercado Bitcoin. The public
// ticker needs no credentials; account balance and order dispatch go through
// the private TAPI and require MB_TAPI_ID / MB_TAPI_SECRET.
type MercadoBitcoin struct {
	coin   string
	id     string
	secret string
	client *http.Client
}

func NewMercadoBitcoin(coin string) *MercadoBitcoin {
	return &MercadoBitcoin{
		coin:   strings.ToUpper(coin),
		id:     os.Getenv("MB_TAPI_ID"),
		secret: os.Getenv("MB_TAPI_SECRET"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *MercadoBitcoin) Name() string { return "mercadobitcoin" }
func (m *MercadoBitcoin) Fiat() string { return "brl" }

func (m *MercadoBitcoin) Assets() []string {
	return []string{"brl", "btc", "ltc", "bch"}
}

func (m *MercadoBitcoin) Ticker(ctx context.Context) (market.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(mbTickerURL, m.coin), nil)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("%w: %v", ErrFeed, err)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("%w: ticker request: %v", ErrFeed, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return market.Snapshot{}, fmt.Errorf("%w: ticker status %d", ErrFeed, res.StatusCode)
	}

	var payload struct {
		Ticker market.Snapshot `json:"ticker"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return market.Snapshot{}, fmt.Errorf("%w: decode ticker: %v", ErrFeed, err)
	}
	return payload.Ticker, nil
}

func (m *MercadoBitcoin) AccountBalance(ctx context.Context) (map[string]balance.Funds, error) {
	data, err := m.tapi(ctx, url.Values{"tapi_method": {"get_account_info"}})
	if err != nil {
		return nil, err
	}

	var info struct {
		Balance map[string]balance.Funds `json:"balance"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: decode account info: %v", ErrFeed, err)
	}
	return info.Balance, nil
}

func (m *MercadoBitcoin) Dispatch(ctx context.Context, ord order.Order) error {
	method := "place_buy_order"
	if ord.Action == order.Sell {
		method = "place_sell_order"
	}

	params := url.Values{
		"tapi_method": {method},
		"coin_pair":   {"BRL" + m.coin},
		"quantity":    {ord.Quantity.StringFixed(8)},
		"limit_price": {ord.LimitPrice.StringFixed(5)},
	}

	if _, err := m.tapi(ctx, params); err != nil {
		return err
	}

	slog.Info("order placed",
		"platform", m.Name(),
		"order_id", ord.ID,
		"action", ord.Action,
		"qty", ord.Quantity,
		"limit_price", ord.LimitPrice)
	return nil
}

// tapi signs and posts one private API call, returning response_data.
// Requests are signed with HMAC-SHA512 over the path and the encoded
// parameters, keyed by the TAPI secret.
func (m *MercadoBitcoin) tapi(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if m.id == "" || m.secret == "" {
		return nil, fmt.Errorf("%w: MB_TAPI_ID and MB_TAPI_SECRET not set", ErrFeed)
	}

	params.Set("tapi_nonce", strconv.FormatInt(time.Now().UnixMicro(), 10))
	encoded := params.Encode()

	mac := hmac.New(sha512.New, []byte(m.secret))
	mac.Write([]byte(mbTapiPath + "?" + encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mbTapiURL, strings.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("TAPI-ID", m.id)
	req.Header.Set("TAPI-MAC", hex.EncodeToString(mac.Sum(nil)))

	res, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tapi request: %v", ErrFeed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read tapi response: %v", ErrFeed, err)
	}

	var envelope struct {
		ResponseData json.RawMessage `json:"response_data"`
		StatusCode   int             `json:"status_code"`
		ErrorMessage string          `json:"error_message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode tapi response: %v", ErrFeed, err)
	}
	if envelope.StatusCode != 100 {
		return nil, fmt.Errorf("%w: tapi status %d: %s", ErrFeed, envelope.StatusCode, envelope.ErrorMessage)
	}
	return envelope.ResponseData, nil
}
