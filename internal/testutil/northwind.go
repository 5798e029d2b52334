// Package testutil provides shared fixtures for tests: a small Northwind
// database and the query sources that describe it.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/roach88/linqsql/internal/ir"
	"github.com/roach88/linqsql/internal/queryir"
)

// Sources over the Northwind tables.
var (
	Customers = queryir.Source{Name: "c", Entity: "Customers"}
	Employees = queryir.Source{Name: "e", Entity: "Employees"}
	Orders    = queryir.Source{Name: "o", Entity: "Orders"}
)

// RepoPath joins parts onto the repository root.
func RepoPath(parts ...string) string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..")
	return filepath.Join(append([]string{root}, parts...)...)
}

// Northwind returns the script that creates and fills the Employees,
// Customers and Orders tables. Identifiers are quoted, so names are
// case-sensitive.
func Northwind(t testing.TB) string {
	t.Helper()
	data, err := os.ReadFile(RepoPath("testdata", "northwind.sql"))
	if err != nil {
		t.Fatalf("read northwind fixture: %v", err)
	}
	return string(data)
}

// Text returns a string-typed member of src.
func Text(src queryir.Source, member string) queryir.MemberAccess {
	return queryir.Member(src, member, ir.KindString)
}

// Number returns an int-typed member of src.
func Number(src queryir.Source, member string) queryir.MemberAccess {
	return queryir.Member(src, member, ir.KindInt)
}

// TempDB returns a database path inside a per-test temporary directory.
func TempDB(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "northwind.db")
}
