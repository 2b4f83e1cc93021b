// Package engine performs the off-chain state transition: load the prior
// encrypted state, apply the requested homomorphic operation, persist the
// new state, and produce the proof hash published on-chain.
package engine

import (
	"context"
	"crypto/sha256"
	"log"

	"github.com/fhestate/fhestate/internal/cache"
	"github.com/fhestate/fhestate/internal/fhe"
)

// Engine chains encrypted state across operations. Compute and publish are
// separated on purpose: Store is idempotent, so a caller can retry
// publication with the same Result without recomputing.
type Engine struct {
	fhectx *fhe.Context
	cache  *cache.Cache
	logger *log.Logger
}

// Result is one completed transition.
type Result struct {
	// URI addresses the new state ciphertext in the cache.
	URI string
	// ProofHash is sha256 of the serialized new state bytes. By
	// construction it equals the digest embedded in URI; both hash the
	// same bytes.
	ProofHash [32]byte
}

func New(fhectx *fhe.Context, c *cache.Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{fhectx: fhectx, cache: c, logger: logger}
}

// Apply runs one load → compute → store → hash cycle.
//
// stateURI == "" marks the first transition for a submitter: the
// deserialized input becomes the new state and op is ignored. Otherwise
// the prior state is loaded (a cache miss propagates verbatim) and
// op is dispatched over (prior, input). Nothing is written to the cache
// until the computation has succeeded.
func (e *Engine) Apply(ctx context.Context, stateURI string, inputBytes []byte, op uint8) (*Result, error) {
	if len(inputBytes) == 0 {
		return nil, &fhe.ComputationError{Reason: "input bytes must not be empty"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputCt, err := fhe.Deserialize(inputBytes)
	if err != nil {
		return nil, err
	}

	var newState *fhe.Ciphertext
	if stateURI == "" {
		// Fresh submitter: the input bootstraps the state container.
		e.logger.Printf("INFO engine: no prior state, using input as initial state")
		newState = inputCt
	} else {
		priorBytes, err := e.cache.Load(stateURI)
		if err != nil {
			return nil, err
		}
		priorCt, err := fhe.Deserialize(priorBytes)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		newState, err = e.fhectx.Execute(op, priorCt, inputCt)
		if err != nil {
			return nil, err
		}
	}

	newBytes, err := fhe.Serialize(newState)
	if err != nil {
		return nil, err
	}
	uri, err := e.cache.Store(newBytes)
	if err != nil {
		return nil, err
	}

	proof := sha256.Sum256(newBytes)
	e.logger.Printf("INFO engine: op=%s new_uri=%s", fhe.OpName(op), uri)
	return &Result{URI: uri, ProofHash: proof}, nil
}
