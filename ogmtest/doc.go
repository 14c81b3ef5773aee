// Package ogmtest is a hand-rolled in-memory graphdriver.Driver for tests
// and examples. It is not a general Cypher engine: like the SQL driver's
// own sqlmock-based tests, it only has to answer the query shapes this
// module actually emits, so it recognizes those shapes directly rather
// than parsing arbitrary Cypher.
//
// It supports: simple label/id-keyed MATCH + raw-property RETURN (a
// virtual-free pull.Compile query), node CREATE with a literal property
// map, SET ... += merges, label REMOVE/SET swaps, one-hop OPTIONAL
// MATCH/collect traversals, and the UNWIND/FOREACH pattern the action
// runner uses to link MODIFIED edges. It does not execute the CALL
// subquery blocks pull.Compile emits for virtual properties; pull's own
// test suite exercises those against a purpose-built fake instead.
package ogmtest
