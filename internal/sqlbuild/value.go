package sqlbuild

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vvka-141/belaz/pkg/belaz"
)

const (
	timestampLayout      = "2006-01-02 15:04:05"
	timestampMicroLayout = "2006-01-02 15:04:05.000000"

	nullText = "None"
)

// Stringify renders a projected value as the text stored in the staging table.
// A null field is stored as "None" so it stays distinguishable from an absent
// field, which the extractor projects as the empty string.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return nullText
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatFloat(val)
	case time.Time:
		t := val.UTC()
		if t.Nanosecond()/1000 != 0 {
			return t.Format(timestampMicroLayout)
		}
		return t.Format(timestampLayout)
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case bson.RawValue:
		return extJSON(val)
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat writes the shortest representation that round-trips.
// Integral values keep a ".0" suffix; very large and very small magnitudes
// switch to exponent notation.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// extJSON renders embedded documents and arrays as relaxed Extended JSON.
func extJSON(val bson.RawValue) string {
	data, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: val}}, false, false)
	if err != nil {
		return val.String()
	}
	s := strings.TrimPrefix(string(data), `{"v":`)
	return strings.TrimSuffix(s, "}")
}

// Clip shortens s to belaz.MaxValueLength characters.
func Clip(s string) string {
	if len(s) <= belaz.MaxValueLength {
		return s
	}
	n := 0
	for i := range s {
		if n == belaz.MaxValueLength {
			return s[:i]
		}
		n++
	}
	return s
}

// Literal quotes s as a SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Cell is the bound text of one value: stringified, then clipped.
func Cell(v any) string {
	return Clip(Stringify(v))
}
