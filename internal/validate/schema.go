package validate

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// CheckShape unifies the raw document with the embedded CUE profile schema
// and reports every mismatch as a warning issue. Shape mismatches are
// warnings rather than errors because the open vendor-extension policy means
// an unexpected shape may still be a usable profile; the required-field
// errors come from the structural checks, not from here.
//
// A fresh CUE context is built per call so concurrent runs share no state.
func CheckShape(raw []byte) []Issue {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// Embedded schema failing to compile is a programming error, but the
		// run must still complete; surface it as a single warning.
		return []Issue{{
			Severity: SeverityWarn,
			Code:     CodeSchemaInvalid,
			Message:  "internal profile schema unavailable: " + err.Error(),
		}}
	}
	schema = schema.LookupPath(cue.ParsePath("#Profile"))

	expr, err := cuejson.Extract("profile.json", raw)
	if err != nil {
		// Unparseable JSON is reported by the fetcher as UCP_INVALID_JSON;
		// nothing further to check here.
		return nil
	}
	doc := ctx.BuildExpr(expr)

	var issues []Issue
	if err := schema.Unify(doc).Validate(cue.Concrete(false)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     CodeSchemaInvalid,
				Message:  "profile shape: " + e.Error(),
				Hint:     "align the field with the published profile schema",
			})
		}
	}
	return issues
}
