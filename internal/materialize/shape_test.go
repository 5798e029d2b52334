package materialize

import (
	"database/sql"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/schema"
)

type customer struct {
	Name    string
	City    string
	Age     int64
	Balance decimal.Decimal
	Active  bool
	Joined  time.Time
	ID      uuid.UUID
}

func customerShape(t *testing.T, resolver schema.Resolver) *Shape[customer] {
	t.Helper()
	shape, err := NewShape(resolver,
		String("ContactName", func(c *customer, v string) { c.Name = v }),
		String("City", func(c *customer, v string) { c.City = v }),
		Int64("Age", func(c *customer, v int64) { c.Age = v }),
		Decimal("Balance", func(c *customer, v decimal.Decimal) { c.Balance = v }),
		Bool("Active", func(c *customer, v bool) { c.Active = v }),
		Time("Joined", func(c *customer, v time.Time) { c.Joined = v }),
		UUID("CustomerID", func(c *customer, v uuid.UUID) { c.ID = v }),
	)
	require.NoError(t, err)
	return shape
}

func TestMaterialize_AssignsMatchingColumns(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []Row{
		{
			{Name: "ContactName", Value: "Maria Anders"},
			{Name: "City", Value: []byte("Berlin")},
			{Name: "Age", Value: int64(41)},
			{Name: "Balance", Value: "120.50"},
			{Name: "Active", Value: int64(1)},
			{Name: "Joined", Value: joined},
			{Name: "CustomerID", Value: id.String()},
		},
	}

	results := customerShape(t, nil).Materialize(rows)
	require.Equal(t, 1, results.Len())

	got := results.Slice()[0]
	assert.Equal(t, "Maria Anders", got.Name)
	assert.Equal(t, "Berlin", got.City)
	assert.Equal(t, int64(41), got.Age)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("120.5")))
	assert.True(t, got.Active)
	assert.True(t, got.Joined.Equal(joined))
	assert.Equal(t, id, got.ID)
}

func TestMaterialize_PreservesRowOrder(t *testing.T) {
	var rows []Row
	for _, name := range []string{"a", "b", "c", "d"} {
		rows = append(rows, Row{{Name: "ContactName", Value: name}})
	}

	results := customerShape(t, nil).Materialize(rows)

	var names []string
	for c := range results.All() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}

func TestMaterialize_ReIterable(t *testing.T) {
	rows := []Row{{{Name: "City", Value: "Paris"}}, {{Name: "City", Value: "Rome"}}}
	results := customerShape(t, nil).Materialize(rows)

	first := slices.Collect(results.All())
	second := slices.Collect(results.All())
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestMaterialize_ConversionFailureLeavesZero(t *testing.T) {
	rows := []Row{{
		{Name: "ContactName", Value: "Ana Trujillo"},
		{Name: "Age", Value: "forty"},
		{Name: "Balance", Value: true},
		{Name: "Joined", Value: "yesterday"},
		{Name: "CustomerID", Value: "not-a-uuid"},
	}}

	got := customerShape(t, nil).Materialize(rows).Slice()[0]
	assert.Equal(t, "Ana Trujillo", got.Name)
	assert.Zero(t, got.Age)
	assert.True(t, got.Balance.IsZero())
	assert.True(t, got.Joined.IsZero())
	assert.Equal(t, uuid.Nil, got.ID)
}

func TestMaterialize_NullLeavesZero(t *testing.T) {
	rows := []Row{{
		{Name: "ContactName", Value: nil},
		{Name: "Age", Value: sql.NullInt64{}},
		{Name: "City", Value: sql.NullString{String: "Lyon", Valid: true}},
	}}

	got := customerShape(t, nil).Materialize(rows).Slice()[0]
	assert.Empty(t, got.Name)
	assert.Zero(t, got.Age)
	assert.Equal(t, "Lyon", got.City)
}

func TestMaterialize_UnknownColumnsIgnored(t *testing.T) {
	rows := []Row{{
		{Name: "Fax", Value: "030-0076545"},
		{Name: "City", Value: "Berlin"},
	}}

	got := customerShape(t, nil).Materialize(rows).Slice()[0]
	assert.Equal(t, customer{City: "Berlin"}, got)
}

func TestMaterialize_CaseInsensitiveFallback(t *testing.T) {
	rows := []Row{{
		{Name: "contactname", Value: "Thomas Hardy"},
		{Name: "CITY", Value: "London"},
	}}

	got := customerShape(t, nil).Materialize(rows).Slice()[0]
	assert.Equal(t, "Thomas Hardy", got.Name)
	assert.Equal(t, "London", got.City)
}

func TestMaterialize_ResolvedColumnNames(t *testing.T) {
	mapping := schema.NewMapping(nil, map[string]string{
		"ContactName": "contact_name",
		"City":        "city",
	}, false)

	shape := customerShape(t, mapping)
	assert.Equal(t, "contact_name", shape.Columns()[0])

	got := shape.Materialize([]Row{{
		{Name: "contact_name", Value: "Hanna Moos"},
		{Name: "city", Value: "Mannheim"},
	}}).Slice()[0]
	assert.Equal(t, "Hanna Moos", got.Name)
	assert.Equal(t, "Mannheim", got.City)
}

func TestNewShape_Errors(t *testing.T) {
	strict := schema.NewMapping(nil, map[string]string{"City": "city"}, true)
	_, err := NewShape(strict, String("Fax", func(c *customer, v string) {}))
	require.Error(t, err)
	assert.True(t, schema.IsResolutionError(err))

	// Pinned columns skip resolution.
	_, err = NewShape(strict, String("Fax", func(c *customer, v string) {}).Column("Fax"))
	assert.NoError(t, err)

	_, err = NewShape[customer](nil,
		String("City", func(c *customer, v string) { c.City = v }),
		String("Town", func(c *customer, v string) { c.City = v }).Column("City"),
	)
	assert.ErrorContains(t, err, "mapped twice")

	_, err = NewShape[customer](nil, Field[customer]{})
	assert.ErrorContains(t, err, "no setter")
}

func TestMaterialize_Concurrent(t *testing.T) {
	shape := customerShape(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			got := shape.Materialize([]Row{{{Name: "Age", Value: n}}}).Slice()
			assert.Equal(t, n, got[0].Age)
		}(int64(i))
	}
	wg.Wait()
}

func TestMaterialize_AverageIntoDecimal(t *testing.T) {
	type summary struct{ Average decimal.Decimal }
	shape, err := NewShape(nil, Decimal("Average", func(s *summary, v decimal.Decimal) { s.Average = v }).Column("avg"))
	require.NoError(t, err)

	got := shape.Materialize([]Row{{{Name: "avg", Value: 2.5}}}).Slice()[0]
	assert.Equal(t, "2.5", got.Average.String())
}

func TestConversions(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		for in, want := range map[ir.Value]string{
			ir.Int(7):      "7",
			ir.Float(1.5):  "1.5",
			ir.Bool(true):  "true",
			ir.String("x"): "x",
		} {
			got, err := toString(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("int64", func(t *testing.T) {
		got, err := toInt64(ir.Float(3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), got)

		_, err = toInt64(ir.Float(3.5))
		assert.Error(t, err)

		got, err = toInt64(ir.String(" 42 "))
		require.NoError(t, err)
		assert.Equal(t, int64(42), got)
	})

	t.Run("float64", func(t *testing.T) {
		got, err := toFloat64(ir.Int(2))
		require.NoError(t, err)
		assert.Equal(t, 2.0, got)

		_, err = toFloat64(ir.Bool(true))
		assert.Error(t, err)
	})

	t.Run("bool", func(t *testing.T) {
		got, err := toBool(ir.String("true"))
		require.NoError(t, err)
		assert.True(t, got)

		got, err = toBool(ir.Int(0))
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("time", func(t *testing.T) {
		got, err := toTime(ir.String("2024-03-01 12:30:00"))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), got)
	})

	t.Run("uuid", func(t *testing.T) {
		id := uuid.New()
		got, err := toUUID(ir.Bytes(id[:]))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("bytes", func(t *testing.T) {
		got, err := toBytes(ir.String("abc"))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)

		_, err = toBytes(ir.Int(1))
		assert.Error(t, err)
	})

	t.Run("null", func(t *testing.T) {
		_, err := toDecimal(ir.Null{})
		assert.ErrorIs(t, err, errNull)
	})
}
