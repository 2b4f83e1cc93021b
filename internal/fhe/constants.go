// Package fhe wraps the lattigo BGV scheme behind an explicit context
// object: key generation, key persistence, encryption at the client
// boundary, and homomorphic evaluation by operation code. The context is
// threaded through callers instead of being activated process-wide so that
// concurrent workers never race on key state.
package fhe

// SecurityLevel is the targeted security level in bits.
const SecurityLevel = 128

// Operation codes dispatched from on-chain task records.
const (
	OpAdd uint8 = 0
	OpSub uint8 = 1
	OpMul uint8 = 2
	OpCmp uint8 = 3 // reserved, not dispatched
	OpAnd uint8 = 4
	OpOr  uint8 = 5
	OpXor uint8 = 6
)

// Default key file names inside a key directory.
const (
	ParamsFile    = "params.bin"
	ClientKeyFile = "client_key.bin"
	ServerKeyFile = "server_key.bin"
)

// CiphertextSizeEstimate is the approximate serialized size of one
// ciphertext with the default parameters, used for capacity planning only.
const CiphertextSizeEstimate = 1 << 18

// OpName returns a human-readable name for an operation code.
func OpName(op uint8) string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpCmp:
		return "CMP"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	default:
		return "UNKNOWN"
	}
}
