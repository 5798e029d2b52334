package materialize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/linqsql/internal/ir"
)

// errNull marks a NULL column. It leaves the field unset without logging.
var errNull = errors.New("value is NULL")

// timeLayouts are tried in order when a time arrives as text. SQLite stores
// timestamps as text in the first three forms.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func convertError(v ir.Value, target string) error {
	return fmt.Errorf("cannot convert %s to %s", ir.KindOf(v), target)
}

func toString(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Null:
		return "", errNull
	case ir.String:
		return string(val), nil
	case ir.Bytes:
		return string(val), nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case ir.Bool:
		return strconv.FormatBool(bool(val)), nil
	case ir.Decimal:
		return val.String(), nil
	case ir.Time:
		return val.Format(time.RFC3339Nano), nil
	case ir.UUID:
		return val.String(), nil
	default:
		return "", convertError(v, "string")
	}
}

func toInt64(v ir.Value) (int64, error) {
	switch val := v.(type) {
	case ir.Null:
		return 0, errNull
	case ir.Int:
		return int64(val), nil
	case ir.Float:
		f := float64(val)
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("float %v is not an int64", f)
		}
		return int64(f), nil
	case ir.Decimal:
		if !val.IsInteger() {
			return 0, fmt.Errorf("decimal %s is not an integer", val)
		}
		return val.IntPart(), nil
	case ir.Bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case ir.String:
		return strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
	case ir.Bytes:
		return strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
	default:
		return 0, convertError(v, "int64")
	}
}

func toFloat64(v ir.Value) (float64, error) {
	switch val := v.(type) {
	case ir.Null:
		return 0, errNull
	case ir.Float:
		return float64(val), nil
	case ir.Int:
		return float64(val), nil
	case ir.Decimal:
		f, _ := val.Float64()
		return f, nil
	case ir.String:
		return strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
	case ir.Bytes:
		return strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
	default:
		return 0, convertError(v, "float64")
	}
}

func toBool(v ir.Value) (bool, error) {
	switch val := v.(type) {
	case ir.Null:
		return false, errNull
	case ir.Bool:
		return bool(val), nil
	case ir.Int:
		// SQLite has no boolean type.
		return val != 0, nil
	case ir.String:
		return strconv.ParseBool(strings.TrimSpace(string(val)))
	case ir.Bytes:
		return strconv.ParseBool(strings.TrimSpace(string(val)))
	default:
		return false, convertError(v, "bool")
	}
}

func toTime(v ir.Value) (time.Time, error) {
	var text string
	switch val := v.(type) {
	case ir.Null:
		return time.Time{}, errNull
	case ir.Time:
		return val.Time, nil
	case ir.String:
		text = string(val)
	case ir.Bytes:
		text = string(val)
	default:
		return time.Time{}, convertError(v, "time")
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", text)
}

func toDecimal(v ir.Value) (decimal.Decimal, error) {
	switch val := v.(type) {
	case ir.Null:
		return decimal.Decimal{}, errNull
	case ir.Decimal:
		return val.Decimal, nil
	case ir.Int:
		return decimal.NewFromInt(int64(val)), nil
	case ir.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, fmt.Errorf("non-finite float %v", f)
		}
		return decimal.NewFromFloat(f), nil
	case ir.String:
		return decimal.NewFromString(strings.TrimSpace(string(val)))
	case ir.Bytes:
		return decimal.NewFromString(strings.TrimSpace(string(val)))
	default:
		return decimal.Decimal{}, convertError(v, "decimal")
	}
}

func toUUID(v ir.Value) (uuid.UUID, error) {
	switch val := v.(type) {
	case ir.Null:
		return uuid.Nil, errNull
	case ir.UUID:
		return uuid.UUID(val), nil
	case ir.String:
		return uuid.Parse(string(val))
	case ir.Bytes:
		if len(val) == 16 {
			return uuid.FromBytes(val)
		}
		return uuid.ParseBytes(val)
	default:
		return uuid.Nil, convertError(v, "uuid")
	}
}

func toBytes(v ir.Value) ([]byte, error) {
	switch val := v.(type) {
	case ir.Null:
		return nil, errNull
	case ir.Bytes:
		return []byte(val), nil
	case ir.String:
		return []byte(val), nil
	default:
		return nil, convertError(v, "bytes")
	}
}
