package intent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/evaluation"
)

// transfer(0x00000000000000000000000000000000000000ff, 1000000)
const transferCalldata = "0xa9059cbb" +
	"00000000000000000000000000000000000000000000000000000000000000ff" +
	"00000000000000000000000000000000000000000000000000000000000f4240"

// approve with an allowance past uint64 range (2^128)
const approveCalldata = "0x095ea7b3" +
	"000000000000000000000000000000000000000000000000000000000000beef" +
	"0000000000000000000000000000000100000000000000000000000000000000"

func TestDecodeTransaction(t *testing.T) {
	d := NewDecoder()

	t.Run("empty calldata is a native transfer", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				From:    "0xaaa",
				To:      "0xbbb",
				Value:   "0x2386f26fc10000",
				ChainID: "1",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, TypeTransferNative, intent.Type)
		assert.Equal(t, "0xbbb", intent.To)
		// Hex values normalize to decimal base units.
		assert.Equal(t, "10000000000000000", intent.Amount)
	})

	t.Run("transfer selector decodes recipient and amount", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				From: "0xaaa",
				To:   "0xtoken",
				Data: transferCalldata,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, TypeTransferErc20, intent.Type)
		assert.Equal(t, "0xtoken", intent.Contract)
		assert.Equal(t, "0x00000000000000000000000000000000000000ff", intent.To)
		assert.Equal(t, "1000000", intent.Amount)
	})

	t.Run("approve selector decodes spender and full-width allowance", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				To:   "0xtoken",
				Data: approveCalldata,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, TypeApproveTokenAllowance, intent.Type)
		assert.Equal(t, "0x000000000000000000000000000000000000beef", intent.Spender)
		assert.Equal(t, "340282366920938463463374607431768211456", intent.Amount)
	})

	t.Run("unknown selector is a contract call", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				To:   "0xdefi",
				Data: "0xdeadbeef",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, TypeCallContract, intent.Type)
		assert.Equal(t, "0xdeadbeef", intent.HexSignature)
	})

	t.Run("missing transaction request fails", func(t *testing.T) {
		_, err := d.Decode(evaluation.Request{Action: evaluation.ActionSignTransaction})
		require.Error(t, err)
	})

	t.Run("truncated calldata fails", func(t *testing.T) {
		_, err := d.Decode(evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				To:   "0xtoken",
				Data: "0xa9059cbb00ff",
			},
		})
		require.Error(t, err)
	})
}

func TestDecodeOtherActions(t *testing.T) {
	d := NewDecoder()

	t.Run("message", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{Action: evaluation.ActionSignMessage, Message: "hello"})
		require.NoError(t, err)
		assert.Equal(t, TypeSignMessage, intent.Type)
		assert.Equal(t, "hello", intent.Message)
	})

	t.Run("typed data extracts the domain", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action:    evaluation.ActionSignTypedData,
			TypedData: json.RawMessage(`{"domain": {"name": "Permit2", "chainId": 1}, "message": {}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, TypeSignTypedData, intent.Type)
		assert.Equal(t, "Permit2", intent.Domain["name"])
	})

	t.Run("raw payload keeps the algorithm", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action:    evaluation.ActionSignRaw,
			Payload:   "0xdeadbeef",
			Algorithm: "ES256K",
		})
		require.NoError(t, err)
		assert.Equal(t, TypeSignRaw, intent.Type)
		assert.Equal(t, "ES256K", intent.Algorithm)
	})

	t.Run("user operation", func(t *testing.T) {
		intent, err := d.Decode(evaluation.Request{
			Action:        evaluation.ActionSignUserOperation,
			UserOperation: json.RawMessage(`{"sender": "0xabc"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, TypeUserOperation, intent.Type)
	})

	t.Run("grant permission has no decoder", func(t *testing.T) {
		_, err := d.Decode(evaluation.Request{Action: evaluation.ActionGrantPermission})
		require.Error(t, err)
	})
}
