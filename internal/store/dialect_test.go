package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/querysql"
	"github.com/roach88/linqsql/internal/testutil"
)

func TestSQLite_Query_RejectsPostgresOnlyConstructs(t *testing.T) {
	db := openNorthwind(t)
	city := testutil.Text(customers, "City")

	tests := []struct {
		name      string
		query     *queryir.Query
		construct string
	}{
		{
			name:      "skip",
			query:     &queryir.Query{From: customers, ResultOperators: []queryir.ResultOperator{queryir.Skip{N: 1}}},
			construct: "OFFSET",
		},
		{
			name:      "skip then take",
			query:     &queryir.Query{From: customers, ResultOperators: []queryir.ResultOperator{queryir.Skip{N: 1}, queryir.Take{N: 1}}},
			construct: "OFFSET",
		},
		{
			name:      "reverse",
			query:     &queryir.Query{From: customers, Select: queryir.MethodCall{Method: queryir.MethodReverse, Receiver: city}},
			construct: "REVERSE",
		},
		{
			name: "substring",
			query: &queryir.Query{From: customers, Select: queryir.MethodCall{
				Method: queryir.MethodSubstring, Receiver: city, Args: []queryir.Expr{queryir.Const(1)},
			}},
			construct: "SUBSTRING",
		},
		{
			name:      "trim",
			query:     &queryir.Query{From: customers, Select: queryir.MethodCall{Method: queryir.MethodTrim, Receiver: city}},
			construct: "TRIM",
		},
		{
			name: "exclusive or",
			query: &queryir.Query{From: employees, Select: queryir.Binary{
				Op: queryir.OpBitXor, Left: testutil.Number(employees, "EmployeeID"), Right: queryir.Const(1),
			}},
			construct: "#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := querysql.NewSQLCompiler(nil).Compile(tt.query)
			require.NoError(t, err)

			_, err = db.Query(context.Background(), cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedDialect)

			var de *DialectError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, DriverSQLite, de.Driver)
			assert.Contains(t, de.Construct, tt.construct)
			assert.Contains(t, err.Error(), "use the postgres driver")
		})
	}
}

func TestSQLite_Query_TakeAloneRuns(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From:            customers,
		ResultOperators: []queryir.ResultOperator{queryir.Take{N: 2}},
	})
	assert.Len(t, rows, 2)
}

func TestCheckSQLite_IgnoresQuotedText(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"quoted identifier", `SELECT "OFFSET 1", "REVERSE(" FROM "Customers"`, false},
		{"string literal", `SELECT * FROM "Customers" WHERE "City" LIKE '%' || @p0 || '#'`, false},
		{"escaped quote", `SELECT 'it''s # here' FROM "Customers"`, false},
		{"limit only", `SELECT * FROM "Customers" LIMIT 5`, false},
		{"offset", `SELECT * FROM "Customers" OFFSET 5 LIMIT 5`, true},
		{"xor", `SELECT "A" # @p0 FROM "Customers"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSQLite(tt.sql)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDialect)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
