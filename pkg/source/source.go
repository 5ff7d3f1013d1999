package source

import (
	"context"
	"errors"

	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// ErrNoRecords is returned when a source yields an empty dataset
var ErrNoRecords = errors.New("no records found")

// Source loads the full set of player records
type Source interface {
	// Load returns every record the source holds, or ErrNoRecords
	Load(ctx context.Context) ([]record.Player, error)

	// Name identifies the source in logs and reports
	Name() string
}
