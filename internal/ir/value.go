package ir

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is a sealed interface over the literal values a query may carry.
// Only the types in this file implement it, so consumers can switch over
// them exhaustively.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents SQL NULL.
type Null struct{}

func (Null) irValue() {}

// String is a text literal.
type String string

func (String) irValue() {}

// Int is an integer literal. Always int64.
type Int int64

func (Int) irValue() {}

// Float is a floating point literal.
type Float float64

func (Float) irValue() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}

// Decimal is an arbitrary precision numeric literal.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) irValue() {}

// NewDecimal parses s into a Decimal.
func NewDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d}, nil
}

// Time is a timestamp literal.
type Time struct {
	time.Time
}

func (Time) irValue() {}

// UUID is a uuid literal.
type UUID uuid.UUID

func (UUID) irValue() {}

// String returns the canonical textual form of the uuid.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// Bytes is a binary literal.
type Bytes []byte

func (Bytes) irValue() {}

// Kind is the static type of a value or expression.
type Kind int

const (
	KindUnknown Kind = iota
	KindNull
	KindString
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindTime
	KindUUID
	KindBytes
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindNull:    "null",
	KindString:  "string",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindDecimal: "decimal",
	KindTime:    "time",
	KindUUID:    "uuid",
	KindBytes:   "bytes",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name (as written in query documents) to a Kind.
// The empty string maps to KindUnknown.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindUnknown, nil
	}
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

// KindOf reports the kind of v.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Null:
		return KindNull
	case String:
		return KindString
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case Bool:
		return KindBool
	case Decimal:
		return KindDecimal
	case Time:
		return KindTime
	case UUID:
		return KindUUID
	case Bytes:
		return KindBytes
	default:
		return KindUnknown
	}
}

// FromGo converts a host value into a Value.
// Unsigned integers above math.MaxInt64 and unsupported types are rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return Float(f), nil
	case decimal.Decimal:
		return Decimal{val}, nil
	case time.Time:
		return Time{val}, nil
	case uuid.UUID:
		return UUID(val), nil
	case []byte:
		return Bytes(val), nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// Param converts v into a value accepted by database/sql drivers and pgx.
func Param(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Decimal:
		return val.Decimal
	case Time:
		return val.Time
	case UUID:
		return uuid.UUID(val)
	case Bytes:
		return []byte(val)
	default:
		return nil
	}
}

// FromDriver converts a value read from a database driver into a Value.
// Driver-specific types implementing driver.Valuer are unwrapped first.
// Values that cannot be represented are returned as their textual form.
func FromDriver(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case [16]byte:
		return UUID(val)
	case uuid.UUID:
		return UUID(val)
	case decimal.Decimal:
		return Decimal{val}
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return String(fmt.Sprint(v))
		}
		if _, again := inner.(driver.Valuer); again {
			return String(fmt.Sprint(inner))
		}
		return FromDriver(inner)
	}
	out, err := FromGo(v)
	if err != nil {
		return String(fmt.Sprint(v))
	}
	return out
}

// Format renders v for human-readable output. It is never used to build SQL.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case String:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Decimal:
		return val.String()
	case Time:
		return val.Format(time.RFC3339Nano)
	case UUID:
		return val.String()
	case Bytes:
		return fmt.Sprintf("%x", []byte(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}
