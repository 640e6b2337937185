package ports

import (
	"context"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Reporter presenta los resultados de un backtest al usuario.
type Reporter interface {
	// Report muestra contadores, métricas por banda y la lista de trades.
	// En la implementación de consola, imprime tablas formateadas.
	Report(ctx context.Context, run domain.BacktestRun) error
}

// ArtifactWriter writes the tabular/document artifacts of a run and returns
// the paths it produced.
type ArtifactWriter interface {
	Write(ctx context.Context, run domain.BacktestRun) ([]string, error)
}

// Archiver uploads produced artifacts to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, runID string, paths []string) error
}
