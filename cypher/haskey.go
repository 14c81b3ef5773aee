package cypher

import (
	"fmt"
	"regexp"

	"github.com/syssam/ogm"
)

// hasKeyRe matches a "⟨var⟩ HAS KEY $name" occurrence (spec.md §4.C).
var hasKeyRe = regexp.MustCompile(`(\w+)\s+HAS\s+KEY\s+\$(\w+)`)

// identifierLikeRe is the purely syntactic id classifier spec.md §9 Open
// Question (b) calls for: a leading underscore followed by base62-safe
// characters. It deliberately misclassifies a slug with the same shape —
// that is documented, preserved behavior, not a bug to fix.
var identifierLikeRe = regexp.MustCompile(`^_[0-9A-Za-z]+$`)

// LooksLikeIdentifier applies the same syntactic check the HAS KEY
// rewriter uses to decide whether a bound value is an id or a slug.
func LooksLikeIdentifier(v string) bool {
	return identifierLikeRe.MatchString(v)
}

// rewriteHasKey replaces every "HAS KEY" occurrence in query using the
// runtime value bound to its parameter name. It fails with
// *ogm.MissingKeyParamError if that name has no bound value.
func rewriteHasKey(query string, params map[string]any) (string, error) {
	var outerErr error
	out := hasKeyRe.ReplaceAllStringFunc(query, func(match string) string {
		if outerErr != nil {
			return match
		}
		sub := hasKeyRe.FindStringSubmatch(match)
		v, name := sub[1], sub[2]
		val, ok := params[name]
		if !ok {
			outerErr = &ogm.MissingKeyParamError{Name: name}
			return match
		}
		s, isString := val.(string)
		if isString && LooksLikeIdentifier(s) {
			return fmt.Sprintf("(%s:%s {id: $%s})", v, "VNode", name)
		}
		return fmt.Sprintf("(%s:%s)<-[:IDENTIFIES]-(:SlugId {slugId: $%s})", v, "VNode", name)
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}
