package fhe

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

// Execute applies the homomorphic operation selected by op to two
// ciphertexts and returns the encrypted result. It never inspects
// plaintext values. An unrecognized code returns InvalidOperationError
// and no work is performed.
//
// ADD, SUB and MUL are exact modulo PlaintextModulus. AND, OR and XOR use
// the boolean polynomials ab, a+b-ab and a+b-2ab; they are defined for
// operands encrypting 0 or 1.
func (c *Context) Execute(op uint8, a, b *Ciphertext) (*Ciphertext, error) {
	if c.evaluator == nil {
		return nil, ErrNoEvaluationKey
	}

	var (
		out *rlwe.Ciphertext
		err error
	)
	switch op {
	case OpAdd:
		out, err = c.evaluator.AddNew(a.ct, b.ct)
	case OpSub:
		out, err = c.evaluator.SubNew(a.ct, b.ct)
	case OpMul:
		out, err = c.evaluator.MulRelinNew(a.ct, b.ct)
	case OpAnd:
		out, err = c.evaluator.MulRelinNew(a.ct, b.ct)
	case OpOr:
		out, err = c.boolOr(a.ct, b.ct)
	case OpXor:
		out, err = c.boolXor(a.ct, b.ct)
	default:
		return nil, &InvalidOperationError{Code: op}
	}
	if err != nil {
		return nil, &ComputationError{Reason: OpName(op), Err: err}
	}
	return &Ciphertext{ct: out}, nil
}

// boolOr computes a+b-ab.
func (c *Context) boolOr(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	ab, err := c.evaluator.MulRelinNew(a, b)
	if err != nil {
		return nil, err
	}
	sum, err := c.evaluator.AddNew(a, b)
	if err != nil {
		return nil, err
	}
	return c.evaluator.SubNew(sum, ab)
}

// boolXor computes a+b-2ab.
func (c *Context) boolXor(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	ab, err := c.evaluator.MulRelinNew(a, b)
	if err != nil {
		return nil, err
	}
	twoAB, err := c.evaluator.AddNew(ab, ab)
	if err != nil {
		return nil, err
	}
	sum, err := c.evaluator.AddNew(a, b)
	if err != nil {
		return nil, err
	}
	return c.evaluator.SubNew(sum, twoAB)
}
