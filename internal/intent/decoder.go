// Package intent provides a minimal transaction-intent decoder for the host.
// It covers native transfers and the common ERC-20 call shapes; hosts with a
// full decoding pipeline plug their own implementation into the same port.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"signet/internal/evaluation"
)

const (
	TypeTransferNative        = "transferNative"
	TypeTransferErc20         = "transferErc20"
	TypeApproveTokenAllowance = "approveTokenAllowance"
	TypeCallContract          = "callContract"
	TypeSignMessage           = "signMessage"
	TypeSignTypedData         = "signTypedData"
	TypeSignRaw               = "signRaw"
	TypeUserOperation         = "userOperation"
)

const (
	selectorTransfer = "a9059cbb"
	selectorApprove  = "095ea7b3"
)

// Decoder is the built-in evaluation.IntentDecoder implementation.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(request evaluation.Request) (*evaluation.Intent, error) {
	switch request.Action {
	case evaluation.ActionSignTransaction:
		return decodeTransaction(request.TransactionRequest)
	case evaluation.ActionSignMessage:
		if request.Message == "" {
			return nil, errors.New("message is required")
		}
		return &evaluation.Intent{Type: TypeSignMessage, Message: request.Message}, nil
	case evaluation.ActionSignTypedData:
		return decodeTypedData(request.TypedData)
	case evaluation.ActionSignRaw:
		if request.Payload == "" {
			return nil, errors.New("payload is required")
		}
		return &evaluation.Intent{Type: TypeSignRaw, Payload: request.Payload, Algorithm: request.Algorithm}, nil
	case evaluation.ActionSignUserOperation:
		if len(request.UserOperation) == 0 {
			return nil, errors.New("userOperation is required")
		}
		return &evaluation.Intent{Type: TypeUserOperation}, nil
	}
	return nil, fmt.Errorf("no decoder for action %q", request.Action)
}

func decodeTransaction(tx *evaluation.TransactionRequest) (*evaluation.Intent, error) {
	if tx == nil {
		return nil, errors.New("transactionRequest is required")
	}

	data := strings.TrimPrefix(strings.ToLower(tx.Data), "0x")
	if data == "" {
		amount := tx.Value
		if amount == "" {
			amount = "0"
		}
		return &evaluation.Intent{
			Type:    TypeTransferNative,
			From:    tx.From,
			To:      tx.To,
			ChainID: tx.ChainID,
			Amount:  decimalAmount(amount),
		}, nil
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("calldata too short: %q", tx.Data)
	}

	selector := data[:8]
	switch selector {
	case selectorTransfer:
		to, amount, err := decodeAddressAmount(data[8:])
		if err != nil {
			return nil, err
		}
		return &evaluation.Intent{
			Type:         TypeTransferErc20,
			From:         tx.From,
			To:           to,
			Contract:     tx.To,
			Token:        tx.To,
			ChainID:      tx.ChainID,
			Amount:       amount,
			HexSignature: "0x" + selector,
		}, nil
	case selectorApprove:
		spender, amount, err := decodeAddressAmount(data[8:])
		if err != nil {
			return nil, err
		}
		return &evaluation.Intent{
			Type:         TypeApproveTokenAllowance,
			From:         tx.From,
			Contract:     tx.To,
			Token:        tx.To,
			Spender:      spender,
			ChainID:      tx.ChainID,
			Amount:       amount,
			HexSignature: "0x" + selector,
		}, nil
	}

	return &evaluation.Intent{
		Type:         TypeCallContract,
		From:         tx.From,
		To:           tx.To,
		Contract:     tx.To,
		ChainID:      tx.ChainID,
		Amount:       decimalAmount(orZero(tx.Value)),
		HexSignature: "0x" + selector,
	}, nil
}

// decodeAddressAmount reads two ABI-encoded words: an address and a uint256.
func decodeAddressAmount(args string) (string, string, error) {
	if len(args) < 128 {
		return "", "", fmt.Errorf("calldata args too short: %d hex chars", len(args))
	}
	address := "0x" + args[24:64]

	amount, ok := new(big.Int).SetString(args[64:128], 16)
	if !ok {
		return "", "", fmt.Errorf("invalid amount word %q", args[64:128])
	}
	return address, amount.String(), nil
}

func decodeTypedData(raw json.RawMessage) (*evaluation.Intent, error) {
	if len(raw) == 0 {
		return nil, errors.New("typedData is required")
	}
	var typed struct {
		Domain map[string]any `json:"domain"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("parse typed data: %w", err)
	}
	return &evaluation.Intent{Type: TypeSignTypedData, Domain: typed.Domain}, nil
}

// decimalAmount normalizes a decimal or 0x-hex amount to a decimal string.
func decimalAmount(value string) string {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		if n, ok := new(big.Int).SetString(value[2:], 16); ok {
			return n.String()
		}
	}
	return value
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
