package evaluation

import (
	"encoding/json"
	"fmt"

	dErrors "signet/pkg/domain-errors"
)

// IntentDecoder is the external collaborator that turns a raw action payload
// into its semantic interpretation.
type IntentDecoder interface {
	Decode(request Request) (*Intent, error)
}

// BuildInput maps an inbound evaluation request into the rule program's input
// shape. Principal and approvals pass through unchanged; payload-carrying
// actions go through the intent decoder first.
func BuildInput(req EvaluationRequest, decoder IntentDecoder) (Input, error) {
	input := Input{
		Action:    req.Request.Action,
		Principal: req.Principal,
		Approvals: req.Approvals,
		Transfers: req.Transfers,
		Resource:  req.Request.Resource,
	}
	if input.Approvals == nil {
		input.Approvals = []Approval{}
	}

	switch req.Request.Action {
	case ActionSignTransaction, ActionSignMessage, ActionSignTypedData, ActionSignRaw, ActionSignUserOperation:
		intent, err := decoder.Decode(req.Request)
		if err != nil {
			return Input{}, invalidIntent(req.Request, err)
		}
		input.Intent = intent
		input.TransactionRequest = req.Request.TransactionRequest
	case ActionGrantPermission:
		// No intent decoding for permission grants.
		input.Permissions = req.Request.Permissions
	default:
		return Input{}, dErrors.New(dErrors.CodeUnsupportedAction, fmt.Sprintf("unsupported action %q", req.Request.Action))
	}

	return input, nil
}

// invalidIntent surfaces a decode failure with the offending payload attached
// for diagnosis. Decode failures never turn into an implicit forbid.
func invalidIntent(request Request, cause error) error {
	payload, err := json.Marshal(request)
	if err != nil {
		payload = []byte(`{}`)
	}
	return dErrors.Wrap(dErrors.CodeInvalidIntent, fmt.Sprintf("invalid intent: payload %s", payload), cause)
}
