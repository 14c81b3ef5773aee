// Package pull implements the data-request tree (spec.md §4.D) and the
// pull compiler that lowers it into a single Cypher query plus a
// projection Shape (spec.md §4.E).
//
// A Request is built against a registry.TypeRef with chainable calls
// (Prop, AllProps, IncludeMany, IncludeOne, IncludeCypher, Derived,
// Branch); requesting the same raw property twice is a no-op, and
// requesting an unknown one records an *ogm.UnknownPropertyError that
// surfaces the next time the request is compiled.
//
// Compiler.Compile lowers a Request plus a Filter into one *cypher.Fragment
// and a *Shape describing how to decode each returned row. Pull and
// PullOne (in pull.go) run that fragment against a graphdriver.Tx and
// materialize rows into nested map[string]any trees in one step.
package pull
