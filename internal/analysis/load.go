package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/whoknowsbruh3425/BDA/pkg/metrics"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// Loader is the part of a record source a snapshot needs
type Loader interface {
	Load(ctx context.Context) ([]record.Player, error)
	Name() string
}

// LoadSnapshot reads every record from src and stamps the result
func LoadSnapshot(ctx context.Context, src Loader) (Snapshot, error) {
	metrics.DatasetReloadsTotal.Inc()

	records, err := src.Load(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	metrics.RecordsLoadedTotal.Add(float64(len(records)))

	return Snapshot{
		Records:  records,
		LoadedAt: time.Now().UTC(),
		Source:   src.Name(),
	}, nil
}
