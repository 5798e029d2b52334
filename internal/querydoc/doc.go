// Package querydoc reads query documents and builds queryir queries from
// them.
//
// A query document is the same tree in YAML, JSON or CUE:
//
//	from: {name: c, entity: Customers}
//	where:
//	  - op: "=="
//	    left: {member: City, source: c, kind: string}
//	    right: {const: London}
//	order_by:
//	  - [{by: {member: ContactName, source: c}, dir: desc}]
//	select:
//	  new:
//	    - {name: Name, expr: {member: ContactName, source: c}}
//	result_operators:
//	  - {op: Take, n: 10}
//
// Expression nodes are told apart by which key they set: const (or null),
// member, op, not, call, if, new, query or ref. Members and refs name a
// range variable declared by the enclosing query or any query around it.
//
// Unknown keys are rejected. Result operators this package does not know
// are passed through by name so the compiler can report them.
package querydoc
