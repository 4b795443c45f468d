package compiler

import (
	"strings"
	"text/template"

	"signet/internal/policy"
)

// The policies module template. Generated rules land in the same package as
// the criteria library so transpiled expressions stay unqualified.
var policiesTemplate = template.Must(template.New("policies").Parse(
	`package signet.policies
{{range .}}
{{.Effect}}[reason] {
{{- range .Expressions}}
	{{.}}
{{- end}}
	reason := {{.Reason}}
}
{{end}}`))

type renderedPolicy struct {
	Effect      string
	Expressions []string
	Reason      string
}

// Render transpiles a policy set into one rule-source module. Pure string
// assembly; no I/O and no hidden state.
func Render(set policy.Set) (string, error) {
	rendered := make([]renderedPolicy, 0, len(set))
	for _, p := range set {
		rp := renderedPolicy{
			Effect: string(p.Then),
			Reason: TranspileReason(p),
		}
		for _, c := range p.When {
			expr, err := TranspileCriterion(c)
			if err != nil {
				return "", err
			}
			rp.Expressions = append(rp.Expressions, expr)
		}
		rendered = append(rendered, rp)
	}

	var buf strings.Builder
	if err := policiesTemplate.Execute(&buf, rendered); err != nil {
		return "", err
	}
	return buf.String(), nil
}
