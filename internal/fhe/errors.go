package fhe

import (
	"errors"
	"fmt"
)

// ErrNoEvaluationKey is returned when a homomorphic operation is attempted
// on a context loaded without the server (evaluation) key.
var ErrNoEvaluationKey = errors.New("fhe: evaluation key not loaded")

// ErrNoSecretKey is returned when encryption or decryption is attempted on
// a context loaded without the client (secret) key.
var ErrNoSecretKey = errors.New("fhe: secret key not loaded")

// KeyNotFoundError reports a missing key file. Startup must not proceed
// without cryptographic material.
type KeyNotFoundError struct {
	Path string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("fhe: key file not found: %s", e.Path)
}

// KeyLoadError wraps a failure to read or parse key material.
type KeyLoadError struct {
	Path string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("fhe: load key %s: %v", e.Path, e.Err)
}

func (e *KeyLoadError) Unwrap() error { return e.Err }

// InvalidOperationError reports an unrecognized operation code.
type InvalidOperationError struct {
	Code uint8
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("fhe: invalid operation code: %d", e.Code)
}

// ComputationError reports a precondition violation or an evaluator
// failure during a homomorphic computation.
type ComputationError struct {
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fhe: computation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fhe: computation failed: %s", e.Reason)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// SerializationError reports malformed ciphertext or key bytes.
type SerializationError struct {
	What string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("fhe: serialize %s: %v", e.What, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
