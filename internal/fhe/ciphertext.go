package fhe

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"
)

// Ciphertext is one encrypted value. The plaintext value lives in slot 0;
// the remaining slots are zero.
type Ciphertext struct {
	ct *rlwe.Ciphertext
}

// PlaintextModulus returns the modulus all arithmetic reduces under.
func (c *Context) PlaintextModulus() uint64 {
	return c.params.PlaintextModulus()
}

// Encrypt encrypts a value with the client key. Boundary use only: the
// dispatcher and engine never call this.
func (c *Context) Encrypt(value uint64) (*Ciphertext, error) {
	if c.encryptor == nil {
		return nil, ErrNoSecretKey
	}
	pt := bgv.NewPlaintext(c.params, c.params.MaxLevel())
	if err := c.encoder.Encode([]uint64{value % c.params.PlaintextModulus()}, pt); err != nil {
		return nil, &ComputationError{Reason: "encode plaintext", Err: err}
	}
	ct, err := c.encryptor.EncryptNew(pt)
	if err != nil {
		return nil, &ComputationError{Reason: "encrypt", Err: err}
	}
	return &Ciphertext{ct: ct}, nil
}

// Decrypt recovers the slot-0 value with the client key.
func (c *Context) Decrypt(ct *Ciphertext) (uint64, error) {
	if c.decryptor == nil {
		return 0, ErrNoSecretKey
	}
	pt := c.decryptor.DecryptNew(ct.ct)
	values := make([]uint64, c.params.MaxSlots())
	if err := c.encoder.Decode(pt, values); err != nil {
		return 0, &ComputationError{Reason: "decode plaintext", Err: err}
	}
	return values[0], nil
}

// Serialize returns the wire form of a ciphertext.
func Serialize(ct *Ciphertext) ([]byte, error) {
	b, err := ct.ct.MarshalBinary()
	if err != nil {
		return nil, &SerializationError{What: "ciphertext", Err: err}
	}
	return b, nil
}

// Deserialize parses ciphertext bytes. Malformed input surfaces as a
// SerializationError.
func Deserialize(data []byte) (*Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, &SerializationError{What: "ciphertext", Err: err}
	}
	return &Ciphertext{ct: ct}, nil
}
