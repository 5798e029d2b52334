package schema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	var r Resolver = Identity{}

	table, err := r.TableName("Employees")
	require.NoError(t, err)
	assert.Equal(t, "Employees", table)

	column, err := r.ColumnName("EmployeeID")
	require.NoError(t, err)
	assert.Equal(t, "EmployeeID", column)

	_, err = r.TableName("")
	assert.True(t, IsResolutionError(err))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Employees", `"Employees"`},
		{"contact_name", `"contact_name"`},
		{`we"ird`, `"we""ird"`},
		{"", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.in))
		})
	}

	assert.Equal(t, `"Orders"."CustomerID"`, Qualify("Orders", "CustomerID"))
}

func TestMapping_Lenient(t *testing.T) {
	m := NewMapping(map[string]string{"Customer": "customers"}, nil, false)

	table, err := m.TableName("Customer")
	require.NoError(t, err)
	assert.Equal(t, "customers", table)

	table, err = m.TableName("Orders")
	require.NoError(t, err)
	assert.Equal(t, "Orders", table, "unmapped names fall back to identity")
}

func TestMapping_Strict(t *testing.T) {
	m := NewMapping(nil, map[string]string{"City": "city"}, true)

	column, err := m.ColumnName("City")
	require.NoError(t, err)
	assert.Equal(t, "city", column)

	_, err = m.ColumnName("Country")
	require.Error(t, err)

	var re *ResolutionError
	require.ErrorAs(t, fmt.Errorf("compile: %w", err), &re)
	assert.Equal(t, KindColumn, re.Kind)
	assert.Equal(t, "Country", re.Name)
	assert.Equal(t, `no column mapping for "Country"`, re.Error())
}

func TestMapping_CopiesInputs(t *testing.T) {
	tables := map[string]string{"Customer": "customers"}
	m := NewMapping(tables, nil, true)
	tables["Customer"] = "changed"

	table, err := m.TableName("Customer")
	require.NoError(t, err)
	assert.Equal(t, "customers", table)
}

func TestMapping_ConcurrentLookups(t *testing.T) {
	m := NewMapping(map[string]string{"Customer": "customers"}, nil, false)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table, err := m.TableName("Customer")
				assert.NoError(t, err)
				assert.Equal(t, "customers", table)
			}
		}()
	}
	wg.Wait()
}

func TestLoadMapping(t *testing.T) {
	m, err := LoadMapping("testdata/northwind.yaml")
	require.NoError(t, err)

	table, err := m.TableName("Order")
	require.NoError(t, err)
	assert.Equal(t, "orders", table)

	column, err := m.ColumnName("ContactName")
	require.NoError(t, err)
	assert.Equal(t, "contact_name", column)

	_, err = m.TableName("Employee")
	assert.True(t, IsResolutionError(err))
}

func TestLoadMapping_Errors(t *testing.T) {
	_, err := LoadMapping("testdata/missing.yaml")
	assert.ErrorContains(t, err, "read schema mapping")

	_, err = ParseMapping([]byte("tables: [oops"))
	assert.ErrorContains(t, err, "parse schema mapping")

	_, err = ParseMapping([]byte("tables:\n  Customer: \"\"\n"))
	assert.ErrorContains(t, err, `table for "Customer" is empty`)
}
