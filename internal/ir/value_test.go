package ir

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestFromGo(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"string", "London", String("London")},
		{"int", 5, Int(5)},
		{"int32", int32(-7), Int(-7)},
		{"uint16", uint16(9), Int(9)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"bool", true, Bool(true)},
		{"json int", json.Number("42"), Int(42)},
		{"json float", json.Number("4.5"), Float(4.5)},
		{"decimal", mustDecimal(t, "1.10"), Decimal{mustDecimal(t, "1.10")}},
		{"time", ts, Time{ts}},
		{"uuid", id, UUID(id)},
		{"bytes", []byte{1, 2}, Bytes{1, 2}},
		{"value passthrough", String("x"), String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoRejects(t *testing.T) {
	_, err := FromGo(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = FromGo(struct{ A int }{1})
	assert.Error(t, err)

	_, err = FromGo(json.Number("not-a-number"))
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindString, KindOf(String("a")))
	assert.Equal(t, KindInt, KindOf(Int(1)))
	assert.Equal(t, KindFloat, KindOf(Float(1)))
	assert.Equal(t, KindBool, KindOf(Bool(true)))
	assert.Equal(t, KindNull, KindOf(Null{}))
	assert.Equal(t, KindDecimal, KindOf(Decimal{}))
	assert.Equal(t, KindUUID, KindOf(UUID{}))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("String")
	require.NoError(t, err)
	assert.Equal(t, KindString, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, k)

	_, err = ParseKind("money")
	assert.Error(t, err)

	assert.Equal(t, "decimal", KindDecimal.String())
}

func TestParam(t *testing.T) {
	id := uuid.New()
	d := mustDecimal(t, "3.14")

	assert.Nil(t, Param(Null{}))
	assert.Nil(t, Param(nil))
	assert.Equal(t, "a", Param(String("a")))
	assert.Equal(t, int64(3), Param(Int(3)))
	assert.Equal(t, 1.5, Param(Float(1.5)))
	assert.Equal(t, true, Param(Bool(true)))
	assert.Equal(t, d, Param(Decimal{d}))
	assert.Equal(t, id, Param(UUID(id)))
	assert.Equal(t, []byte("x"), Param(Bytes("x")))
}

func TestFromDriver(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, Null{}, FromDriver(nil))
	assert.Equal(t, Int(7), FromDriver(int64(7)))
	assert.Equal(t, Float(0.25), FromDriver(0.25))
	assert.Equal(t, String("x"), FromDriver("x"))
	assert.Equal(t, Bytes("raw"), FromDriver([]byte("raw")))
	assert.Equal(t, UUID(id), FromDriver([16]byte(id)))
	assert.Equal(t, UUID(id), FromDriver(id))

	// decimal.NullDecimal implements driver.Valuer and yields a string.
	nd := decimal.NullDecimal{Decimal: mustDecimal(t, "2.5"), Valid: true}
	assert.Equal(t, String("2.5"), FromDriver(nd))

	// Unknown types degrade to their textual form.
	assert.Equal(t, String("{1}"), FromDriver(struct{ A int }{1}))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "NULL", Format(Null{}))
	assert.Equal(t, `"it's"`, Format(String("it's")))
	assert.Equal(t, "12", Format(Int(12)))
	assert.Equal(t, "0.5", Format(Float(0.5)))
	assert.Equal(t, "false", Format(Bool(false)))
}

func TestNewDecimal(t *testing.T) {
	d, err := NewDecimal("10.25")
	require.NoError(t, err)
	assert.Equal(t, "10.25", d.String())

	_, err = NewDecimal("ten")
	assert.Error(t, err)
}
