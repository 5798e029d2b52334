// Package materialize converts raw result rows into typed values.
//
// A Shape is an explicit mapping table built once per target type: each
// Field pairs a property name with a typed setter, and NewShape resolves the
// property's physical column name up front. Materializing a batch of rows
// allocates one target value per row and assigns every column that matches
// a field.
//
// Conversion is permissive. SQL NULL and values that cannot be converted
// leave the field at its zero value; failures are logged at debug level and
// never returned. Columns with no matching field are ignored.
package materialize
