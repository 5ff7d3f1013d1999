package analysis

import (
	"github.com/whoknowsbruh3425/BDA/pkg/extract"
	"github.com/whoknowsbruh3425/BDA/pkg/record"
)

// Valid ranges applied by Clean
const (
	minAge      = 10
	maxAge      = 80
	minPlayTime = 0
	maxPlayTime = 100
)

// Clean keeps records whose age lies in [10, 80] and play time in [0, 100].
// A missing or unparseable value coerces to 0, which fails the age bound.
func Clean(records []record.Player) []record.Player {
	out := make([]record.Player, 0, len(records))
	for _, rec := range records {
		age := extract.Coerce(extract.Float, rec[record.Age]).Float
		play := extract.Coerce(extract.Float, rec[record.PlayTimeHours]).Float
		if age < minAge || age > maxAge || play < minPlayTime || play > maxPlayTime {
			continue
		}
		out = append(out, rec)
	}
	return out
}
