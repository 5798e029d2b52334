package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/materialize"
	"github.com/roach88/linqsql/internal/queryir"
	"github.com/roach88/linqsql/internal/querysql"
	"github.com/roach88/linqsql/internal/testutil"
)

var (
	customers = testutil.Customers
	employees = testutil.Employees
	orders    = testutil.Orders
)

func openNorthwind(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(testutil.TempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Exec(context.Background(), testutil.Northwind(t)))
	return db
}

func run(t *testing.T, db Transport, q *queryir.Query) []materialize.Row {
	t.Helper()
	cmd, err := querysql.NewSQLCompiler(nil).Compile(q)
	require.NoError(t, err)
	rows, err := db.Query(context.Background(), cmd)
	require.NoError(t, err, "sql: %s", cmd.SQL)
	return rows
}

func TestOpenSQLite_CreatesDatabase(t *testing.T) {
	db, err := OpenSQLite(testutil.TempDB(t))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSQLite_Close_Idempotent(t *testing.T) {
	var s SQLite
	assert.NoError(t, s.Close())
}

func TestSQLite_Query_BindsNamedParameters(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From: employees,
		Where: []queryir.Expr{queryir.MethodCall{
			Method:   queryir.MethodEquals,
			Receiver: testutil.Number(employees, "EmployeeID"),
			Args:     []queryir.Expr{queryir.Const(5)},
		}},
	})

	require.Len(t, rows, 1)
	name, ok := rows[0].Get("LastName")
	require.True(t, ok)
	assert.Equal(t, "Buchanan", name)
}

func TestSQLite_Query_Projection(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From: customers,
		Where: []queryir.Expr{queryir.Binary{
			Op:    queryir.OpEqual,
			Left:  testutil.Text(customers, "City"),
			Right: queryir.Const("London"),
		}},
		Select: queryir.NewProjection{Fields: []queryir.NamedExpr{
			{Name: "Name", Expr: testutil.Text(customers, "ContactName")},
			{Name: "Loud", Expr: queryir.MethodCall{
				Method:   queryir.MethodToUpper,
				Receiver: testutil.Text(customers, "City"),
			}},
		}},
		OrderBy: []queryir.OrderGroup{{{Expr: testutil.Text(customers, "ContactName"), Direction: queryir.Ascending}}},
	})

	records := materialize.RecordsOf(rows).Slice()
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "Loud"}, records[0].Names())
	assert.Equal(t, []ir.Value{ir.String("Thomas Hardy"), ir.String("LONDON")}, records[0].Values())
	assert.Equal(t, []ir.Value{ir.String("Victoria Ashworth"), ir.String("LONDON")}, records[1].Values())
}

func TestSQLite_Query_ReusedParameterValues(t *testing.T) {
	db := openNorthwind(t)

	city := testutil.Text(customers, "City")
	rows := run(t, db, &queryir.Query{
		From: customers,
		Where: []queryir.Expr{queryir.Binary{
			Op:    queryir.OpOr,
			Left:  queryir.Binary{Op: queryir.OpEqual, Left: city, Right: queryir.Const("Berlin")},
			Right: queryir.Binary{Op: queryir.OpEqual, Left: city, Right: queryir.Const("München")},
		}},
	})
	assert.Len(t, rows, 2)
}

func TestSQLite_Query_Contains(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From: customers,
		Where: []queryir.Expr{queryir.MethodCall{
			Method:   queryir.MethodContains,
			Receiver: testutil.Text(customers, "ContactName"),
			Args:     []queryir.Expr{queryir.Const("Hardy")},
		}},
	})

	require.Len(t, rows, 1)
	id, _ := rows[0].Get("CustomerID")
	assert.Equal(t, "AROUT", id)
}

func TestSQLite_Query_InjectionIsInert(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From: customers,
		Where: []queryir.Expr{queryir.Binary{
			Op:    queryir.OpEqual,
			Left:  testutil.Text(customers, "City"),
			Right: queryir.Const(`London' OR '1'='1`),
		}},
	})
	assert.Empty(t, rows)

	rows = run(t, db, &queryir.Query{From: customers})
	assert.Len(t, rows, 5, "table survives")
}

func TestSQLite_Query_CorrelatedExists(t *testing.T) {
	db := openNorthwind(t)

	hasOrders := queryir.SubQuery{Query: &queryir.Query{
		From: orders,
		ResultOperators: []queryir.ResultOperator{queryir.Any{Predicate: queryir.Binary{
			Op:    queryir.OpEqual,
			Left:  testutil.Text(orders, "CustomerID"),
			Right: testutil.Text(customers, "CustomerID"),
		}}},
	}}

	rows := run(t, db, &queryir.Query{
		From:    customers,
		Where:   []queryir.Expr{hasOrders},
		Select:  testutil.Text(customers, "CustomerID"),
		OrderBy: []queryir.OrderGroup{{{Expr: testutil.Text(customers, "CustomerID"), Direction: queryir.Ascending}}},
	})

	var ids []any
	for _, row := range rows {
		ids = append(ids, row[0].Value)
	}
	assert.Equal(t, []any{"ALFKI", "AROUT", "BSBEV"}, ids)
}

func TestSQLite_Query_Aggregates(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From:            customers,
		ResultOperators: []queryir.ResultOperator{queryir.Count{}},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0][0].Value)

	rows = run(t, db, &queryir.Query{
		From: orders,
		Where: []queryir.Expr{queryir.Binary{
			Op:    queryir.OpEqual,
			Left:  testutil.Text(orders, "CustomerID"),
			Right: queryir.Const("ALFKI"),
		}},
		Select: queryir.NewProjection{Fields: []queryir.NamedExpr{
			{Name: "Average", Expr: queryir.Member(orders, "Freight", ir.KindFloat)},
		}},
		ResultOperators: []queryir.ResultOperator{queryir.Average{}},
	})

	type summary struct{ Average float64 }
	shape, err := materialize.NewShape(nil,
		materialize.Float64("Average", func(s *summary, v float64) { s.Average = v }),
	)
	require.NoError(t, err)

	got := shape.Materialize(rows).Slice()
	require.Len(t, got, 1)
	assert.InDelta(t, 21.995, got[0].Average, 1e-9)
}

func TestSQLite_Query_SelfJoin(t *testing.T) {
	db := openNorthwind(t)

	managers := queryir.Source{Name: "m", Entity: "Employees"}
	rows := run(t, db, &queryir.Query{
		From: employees,
		Joins: []queryir.Join{{
			Source:   managers,
			OuterKey: testutil.Number(employees, "ReportsTo"),
			InnerKey: testutil.Number(managers, "EmployeeID"),
		}},
		Select: queryir.NewProjection{Fields: []queryir.NamedExpr{
			{Name: "Employee", Expr: testutil.Text(employees, "LastName")},
			{Name: "Manager", Expr: testutil.Text(managers, "LastName")},
		}},
		OrderBy: []queryir.OrderGroup{{{Expr: testutil.Number(employees, "EmployeeID"), Direction: queryir.Ascending}}},
	})

	records := materialize.RecordsOf(rows).Slice()
	require.Len(t, records, 4)
	for _, rec := range records {
		manager, _ := rec.Get("Manager")
		assert.Equal(t, ir.String("Fuller"), manager)
	}
}

func TestSQLite_Query_EmptyResultIsNotNil(t *testing.T) {
	db := openNorthwind(t)

	rows := run(t, db, &queryir.Query{
		From: customers,
		Where: []queryir.Expr{queryir.Binary{
			Op:    queryir.OpEqual,
			Left:  testutil.Text(customers, "Country"),
			Right: queryir.Const("Atlantis"),
		}},
	})
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLite_Query_ContextCanceled(t *testing.T) {
	db := openNorthwind(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.Query(ctx, querysql.Command{SQL: `SELECT * FROM "Customers"`})
	assert.Error(t, err)
}

func TestSQLite_Query_DriverErrorIsWrapped(t *testing.T) {
	db := openNorthwind(t)

	_, err := db.Query(context.Background(), querysql.Command{SQL: `SELECT * FROM "Nope"`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query:")
}
