package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the primitive type a field is coerced to
type Kind int

const (
	Float Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return "float"
	}
}

// Unknown replaces absent string values
const Unknown = "Unknown"

// Outcome tells whether a value was read from the record or substituted
type Outcome int

const (
	Parsed Outcome = iota
	Defaulted
	// Absent marks an optional field whose key was missing
	Absent
)

func (o Outcome) String() string {
	switch o {
	case Defaulted:
		return "defaulted"
	case Absent:
		return "absent"
	default:
		return "parsed"
	}
}

// Value is a single coerced cell. Float mirrors Int for Int fields so numeric
// consumers can read either.
type Value struct {
	Float   float64
	Int     int64
	Str     string
	Outcome Outcome
}

// Defaulted reports whether the value was substituted, including absent
// optional values
func (v Value) Defaulted() bool {
	return v.Outcome != Parsed
}

// Absent reports whether an optional field was missing from the record
func (v Value) Absent() bool {
	return v.Outcome == Absent
}

// Coerce converts a raw document value to the requested kind.
// It never fails: unusable input yields the zero value (or Unknown for
// strings) with a Defaulted outcome.
func Coerce(kind Kind, v any) Value {
	switch kind {
	case Int:
		return coerceInt(v)
	case String:
		return coerceString(v)
	default:
		return coerceFloat(v)
	}
}

func coerceFloat(v any) Value {
	f, ok := toFloat(v)
	if !ok {
		return Value{Str: "0", Outcome: Defaulted}
	}
	val := Value{Float: f, Str: formatFloat(f), Outcome: Parsed}
	if f < math.MaxInt64 && f >= math.MinInt64 {
		val.Int = int64(f)
	}
	return val
}

func coerceInt(v any) Value {
	if i, ok := exactInt(v); ok {
		return Value{Float: float64(i), Int: i, Str: strconv.FormatInt(i, 10), Outcome: Parsed}
	}
	f, ok := toFloat(v)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return Value{Str: "0", Outcome: Defaulted}
	}
	i := int64(f) // truncates toward zero
	return Value{Float: float64(i), Int: i, Str: strconv.FormatInt(i, 10), Outcome: Parsed}
}

func coerceString(v any) Value {
	var s string
	switch t := v.(type) {
	case nil:
		return Value{Str: Unknown, Outcome: Defaulted}
	case string:
		s = t
	case bool:
		if t {
			s = "True"
		} else {
			s = "False"
		}
	case float64:
		s = floatText(t)
	case float32:
		s = floatText(float64(t))
	case primitive.ObjectID:
		s = t.Hex()
	default:
		if i, ok := exactInt(v); ok {
			s = strconv.FormatInt(i, 10)
		} else {
			s = fmt.Sprint(t)
		}
	}
	return Value{Str: s, Outcome: Parsed}
}

// exactInt handles integer kinds without a float round trip
func exactInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

type floater interface {
	Float64() (float64, error)
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case float64:
		f = t
	case float32:
		f = float64(t)
	case string:
		return parseNumeric(t)
	case primitive.Decimal128:
		return parseNumeric(t.String())
	case floater:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		if i, ok := exactInt(v); ok {
			return float64(i), true
		}
		if u, ok := v.(uint64); ok {
			return float64(u), true
		}
		if u, ok := v.(uint); ok {
			return float64(u), true
		}
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// floatText keeps a float recognisable as one when used as a label, so a
// stored 10.0 reads "10.0" rather than "10"
func floatText(f float64) string {
	s := formatFloat(f)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}
