package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"signet/internal/policy"
	dErrors "signet/pkg/domain-errors"
)

// approvalsVar is the intermediate the approvals check binds to so the reason
// renderer can reference its satisfied/missing sub-fields.
const approvalsVar = "approvals"

// TranspileCriterion renders one criterion to a rule-source expression.
// The shape of the rendered call follows the criterion's argument shape:
//
//	null / empty args  -> bare predicate reference
//	string list        -> predicate applied to a set literal
//	object list        -> predicate applied to a list literal
//	single object      -> predicate applied to an object literal
//
// The approvals kind additionally binds the call result to the `approvals`
// intermediate.
func TranspileCriterion(c policy.Criterion) (string, error) {
	name := string(c.Criterion)

	// Empty or absent args degrade to a bare predicate reference, same as the
	// no-argument kinds.
	if emptyArgs(c.Args) {
		return name, nil
	}

	var call string
	switch c.Criterion.Shape() {
	case policy.ShapeNone:
		return name, nil
	case policy.ShapeStringList:
		var vals []string
		if err := json.Unmarshal(c.Args, &vals); err != nil {
			return "", dErrors.Wrap(dErrors.CodeValidation, fmt.Sprintf("%s args", name), err)
		}
		call = fmt.Sprintf("%s(%s)", name, setLiteral(vals))
	case policy.ShapeObjectList, policy.ShapeObject:
		lit, err := compactJSON(c.Args)
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeValidation, fmt.Sprintf("%s args", name), err)
		}
		call = fmt.Sprintf("%s(%s)", name, lit)
	}

	if c.Criterion == policy.KindCheckApprovals {
		call = fmt.Sprintf("%s := %s", approvalsVar, call)
	}
	return call, nil
}

// TranspileReason renders the policy's reason record literal. Approval lists
// reference the bound intermediate only for permit policies that carry the
// approvals check; forbid never needs approvals.
func TranspileReason(p policy.Policy) string {
	satisfied, missing := `[]`, `[]`
	if p.Then == policy.EffectPermit && hasApprovalsCriterion(p) {
		satisfied = approvalsVar + ".approvalsSatisfied"
		missing = approvalsVar + ".approvalsMissing"
	}
	return fmt.Sprintf(
		`{"type": %q, "policyId": %q, "policyName": %q, "approvalsSatisfied": %s, "approvalsMissing": %s}`,
		p.Then, p.ID, p.Name, satisfied, missing,
	)
}

func hasApprovalsCriterion(p policy.Policy) bool {
	for _, c := range p.When {
		if c.Criterion == policy.KindCheckApprovals && !emptyArgs(c.Args) {
			return true
		}
	}
	return false
}

func emptyArgs(args json.RawMessage) bool {
	trimmed := bytes.TrimSpace(args)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("[]"))
}

func setLiteral(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		raw, _ := json.Marshal(v)
		quoted[i] = string(raw)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

func compactJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
