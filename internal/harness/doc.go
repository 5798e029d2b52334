// Package harness runs query scenarios as executable contract tests for the
// SQL translator.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: mapping.yaml      # optional name mapping
//	seed: ../northwind.sql    # optional, executes the query on SQLite
//	query:
//	  from: {name: c, entity: Customers}
//	  where:
//	    - op: "=="
//	      left: {member: City, source: c}
//	      right: {const: London}
//	expect:
//	  sql: SELECT * FROM "Customers" WHERE "City" = @p0
//	  params: [London]
//	  row_count: 2
//	  rows:
//	    - {CustomerID: AROUT}
//
// The query block is a query document (see package querydoc). Paths are
// relative to the scenario file.
//
// Without a seed the query is only compiled. With a seed the harness opens a
// fresh in-memory SQLite database, runs the seed script and executes the
// query, so expected rows can be asserted. Row expectations are subset
// matches: only the columns listed are compared.
//
// Expected errors are named by category (unsupported, resolution,
// validation, transport) and may add a substring the message must contain.
//
// # Golden Files
//
// RunWithGolden snapshots the compiled SQL, parameters and rows (or the
// error category) as canonical JSON under testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
