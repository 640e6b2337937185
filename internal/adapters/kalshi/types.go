package kalshi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DTOs raw de la API de Kalshi. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

type eventsResponse struct {
	Events []apiEvent `json:"events"`
	Cursor string     `json:"cursor"`
}

type eventResponse struct {
	Event apiEvent `json:"event"`
}

type apiEvent struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"sub_title"`
	Category     string   `json:"category"`
	StrikeDate   unixTime `json:"strike_date"`
}

type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market apiMarket `json:"market"`
}

type apiMarket struct {
	Ticker      string   `json:"ticker"`
	EventTicker string   `json:"event_ticker"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	YesSubTitle string   `json:"yes_sub_title"`
	Status      string   `json:"status"`
	YesBid      int      `json:"yes_bid"`
	YesAsk      int      `json:"yes_ask"`
	LastPrice   int      `json:"last_price"`
	Volume      int64    `json:"volume"`
	OpenTime    unixTime `json:"open_time"`
	CloseTime   unixTime `json:"close_time"`
}

type tradesResponse struct {
	Trades []apiTrade `json:"trades"`
	Cursor string     `json:"cursor"`
}

type apiTrade struct {
	TradeID     string   `json:"trade_id"`
	Ticker      string   `json:"ticker"`
	CreatedTime unixTime `json:"created_time"`
	Count       int      `json:"count"`
	YesPrice    int      `json:"yes_price"`
	TakerSide   string   `json:"taker_side"`
}

type candlesResponse struct {
	Candles []apiCandle `json:"candles"`
}

type apiCandle struct {
	StartPeriodTS int64 `json:"start_period_ts"`
	Open          int   `json:"open"`
	High          int   `json:"high"`
	Low           int   `json:"low"`
	Close         int   `json:"close"`
	Volume        int   `json:"volume"`
}

// unixTime acepta tanto segundos unix como strings RFC3339; Kalshi usa
// ambos según el endpoint. 0 significa ausente.
type unixTime int64

func (t *unixTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*t = 0
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = unixTime(n)
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z"} {
			if ts, err := time.Parse(layout, s); err == nil {
				*t = unixTime(ts.Unix())
				return nil
			}
		}
		return fmt.Errorf("unixTime: cannot parse %q", s)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		v = int64(f)
	}
	*t = unixTime(v)
	return nil
}
