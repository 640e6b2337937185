package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// RunStorage persiste cada ejecución del backtester.
type RunStorage interface {
	// SaveRun persiste config, contadores, métricas por banda y trades.
	SaveRun(ctx context.Context, run domain.BacktestRun) error

	// ListRuns devuelve las últimas ejecuciones, más recientes primero.
	ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error)

	// GetRunTrades devuelve los trades de una ejecución.
	GetRunTrades(ctx context.Context, runID string) ([]domain.TradeRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// MarketDataCache stores fetched observation streams keyed by market and
// window so a re-run with other parameters does not hit the API again.
type MarketDataCache interface {
	GetEventData(ctx context.Context, ticker string, from, to int64) ([]domain.Observation, bool, error)
	PutEventData(ctx context.Context, ticker string, from, to int64, obs []domain.Observation) error
}
