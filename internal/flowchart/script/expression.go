package script

import (
	"regexp"
	"strings"
)

// lesson expressions reference facts as {stage.part.value}
var factRef = regexp.MustCompile(`\{([^{}]*)\}`)

// ValidateExpression reports whether a lesson expression compiles. Fact
// references are resolved against the facts table
func (e *LuaEnv) ValidateExpression(expr string) error {
	_, err := e.CompileExpression(TranslateExpression(expr))
	return err
}

// TranslateExpression rewrites the fact references of a lesson expression
// into Lua table lookups
func TranslateExpression(expr string) string {
	return factRef.ReplaceAllStringFunc(expr, func(ref string) string {
		name := strings.TrimSpace(ref[1 : len(ref)-1])
		return "facts[" + luaString(name) + "]"
	})
}

// ExpressionRefs returns the fact references of a lesson expression, in
// order of appearance
func ExpressionRefs(expr string) []string {
	var res []string
	for _, m := range factRef.FindAllStringSubmatch(expr, -1) {
		res = append(res, strings.TrimSpace(m[1]))
	}
	return res
}
