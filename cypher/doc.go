// Package cypher is the query-string composer (spec.md §4.C): an
// immutable, composable Fragment that lowers to one parameterized Cypher
// query string plus its bound params.
//
// Go has no tagged-template-literal syntax, so the "tagged template" form
// spec.md describes is expressed as Expr(template, args...): each "?" in
// template is one interpolation slot, filled positionally from args.
// Expr type-switches each argument the same way a tagged template's
// interpolation handler would:
//
//   - a registry.TypeRef renders as its full inherited-label chain,
//     joined by ":" — this is the only way a node type may appear in a
//     Fragment; passed instead to WithParams (see below) it becomes a
//     bound value and fails with *ogm.TypeError, matching spec.md's rule
//     that interpolating a node type "as a value" is an error.
//   - a RelationshipRef (e.g. a *registry.Relationship) renders as its
//     name.
//   - a *Fragment is inlined, its own auto-parameters renamed with a
//     "clauseN_" prefix and its explicit params merged into the outer
//     fragment.
//   - a ForcedInt value (from Int(v)) is bound as an auto-parameter
//     tagged for integer decoding by the driver.
//   - anything else is bound as a fresh auto-parameter $pN.
//
// The plain-string form is Raw(template).WithParams(map[string]any{...}):
// template already contains the named placeholders ($key, ...) the
// caller is binding.
//
// Compilation (Compile, or the first read of QueryString/Params) is lazy
// and memoized. It performs, in order: nested-fragment inlining and
// auto-parameter assignment, then the HAS KEY rewrite pass described in
// spec.md §4.C and §9 Open Question (b).
package cypher
