package compiler

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/types"
)

// Arbitrary-precision integer builtins for the rule library. Asset amounts are
// base-unit values up to and beyond 2^256; comparing them through float64 or
// machine integers would silently corrupt them, so all amount arithmetic in
// the rule program goes through math/big.
func init() {
	rego.RegisterBuiltin2(&rego.Function{
		Name:    "bignum_cmp",
		Decl:    types.NewFunction(types.Args(types.A, types.A), types.N),
		Memoize: true,
	}, func(_ rego.BuiltinContext, a, b *ast.Term) (*ast.Term, error) {
		x, err := termToBigInt(a)
		if err != nil {
			return nil, err
		}
		y, err := termToBigInt(b)
		if err != nil {
			return nil, err
		}
		return ast.IntNumberTerm(x.Cmp(y)), nil
	})

	rego.RegisterBuiltin2(&rego.Function{
		Name:    "bignum_mul",
		Decl:    types.NewFunction(types.Args(types.A, types.A), types.S),
		Memoize: true,
	}, func(_ rego.BuiltinContext, a, b *ast.Term) (*ast.Term, error) {
		x, err := termToBigInt(a)
		if err != nil {
			return nil, err
		}
		y, err := termToBigInt(b)
		if err != nil {
			return nil, err
		}
		return ast.StringTerm(new(big.Int).Mul(x, y).String()), nil
	})

	rego.RegisterBuiltin1(&rego.Function{
		Name:    "bignum_sum",
		Decl:    types.NewFunction(types.Args(types.NewArray(nil, types.A)), types.S),
		Memoize: true,
	}, func(_ rego.BuiltinContext, a *ast.Term) (*ast.Term, error) {
		arr, ok := a.Value.(*ast.Array)
		if !ok {
			return nil, fmt.Errorf("bignum_sum: expected array, got %v", a.Value)
		}
		total := new(big.Int)
		var iterErr error
		arr.Foreach(func(t *ast.Term) {
			if iterErr != nil {
				return
			}
			v, err := termToBigInt(t)
			if err != nil {
				iterErr = err
				return
			}
			total.Add(total, v)
		})
		if iterErr != nil {
			return nil, iterErr
		}
		return ast.StringTerm(total.String()), nil
	})
}

func termToBigInt(t *ast.Term) (*big.Int, error) {
	switch v := t.Value.(type) {
	case ast.String:
		return parseBigInt(string(v))
	case ast.Number:
		return parseBigInt(string(v))
	}
	return nil, fmt.Errorf("bignum: expected string or number, got %v", t.Value)
}

// parseBigInt reads a decimal or 0x-prefixed hex integer of any magnitude.
func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	n := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := n.SetString(s[2:], 16); !ok {
			return nil, fmt.Errorf("bignum: invalid hex integer %q", s)
		}
		return n, nil
	}
	if _, ok := n.SetString(s, 10); !ok {
		return nil, fmt.Errorf("bignum: invalid integer %q", s)
	}
	return n, nil
}
