package kalshi

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

var now = time.Now

var teamsRe = regexp.MustCompile(`(?i)^(.+?)\s+(?:vs\.?|@|versus)\s+(.+)$`)

// ExtractTeams parte títulos tipo "A vs B", "A vs. B", "A @ B" o
// "A versus B". Devuelve nil si el título no sigue ninguno.
func ExtractTeams(title string) []string {
	m := teamsRe.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return nil
	}
	return []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
}

func mapEvent(e apiEvent) domain.Event {
	return domain.Event{
		EventTicker:  e.EventTicker,
		SeriesTicker: e.SeriesTicker,
		Title:        e.Title,
		Subtitle:     e.Subtitle,
		Category:     e.Category,
		StrikeTime:   int64(e.StrikeDate),
		Teams:        ExtractTeams(e.Title),
	}
}

func mapMarket(m apiMarket) domain.Market {
	sub := m.Subtitle
	if sub == "" {
		sub = m.YesSubTitle
	}
	return domain.Market{
		Ticker:      m.Ticker,
		EventTicker: m.EventTicker,
		Title:       m.Title,
		Subtitle:    sub,
		Status:      m.Status,
		YesBid:      m.YesBid,
		YesAsk:      m.YesAsk,
		LastPrice:   m.LastPrice,
		Volume:      m.Volume,
		OpenTime:    int64(m.OpenTime),
		CloseTime:   int64(m.CloseTime),
	}
}

// mapTrades convierte y ordena la cinta. La API devuelve los trades más
// recientes primero.
func mapTrades(raw []apiTrade) []domain.Observation {
	obs := make([]domain.Observation, 0, len(raw))
	for _, t := range raw {
		if !domain.ValidCents(t.YesPrice) || t.CreatedTime <= 0 {
			slog.Warn("dropping malformed kalshi trade", "trade_id", t.TradeID, "price", t.YesPrice)
			continue
		}
		obs = append(obs, domain.NewTrade(int64(t.CreatedTime), t.YesPrice, t.Count))
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Timestamp < obs[j].Timestamp })
	return obs
}

func mapCandles(raw []apiCandle) []domain.Observation {
	obs := make([]domain.Observation, 0, len(raw))
	for _, c := range raw {
		o := domain.NewCandle(c.StartPeriodTS, c.Open, c.High, c.Low, c.Close, c.Volume)
		if err := domain.ValidateObservations([]domain.Observation{o}); err != nil {
			slog.Warn("dropping malformed kalshi candle", "start", c.StartPeriodTS, "err", err)
			continue
		}
		obs = append(obs, o)
	}
	return obs
}
