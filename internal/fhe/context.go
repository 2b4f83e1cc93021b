package fhe

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"
)

// defaultParametersLiteral returns the fixed BGV parameter set. The
// plaintext modulus 0x10001 gives exact arithmetic over Z_65537; all
// dispatched operations reduce modulo it.
func defaultParametersLiteral() bgv.ParametersLiteral {
	return bgv.ParametersLiteral{
		LogN:             13,
		LogQ:             []int{54, 54, 54},
		LogP:             []int{55},
		PlaintextModulus: 0x10001,
	}
}

// Role selects which key material a context loads.
type Role int

const (
	// RoleFull loads secret and evaluation keys (local testing, proof demo).
	RoleFull Role = iota
	// RoleClient loads the secret key only: encrypt and decrypt.
	RoleClient
	// RoleServer loads the evaluation key only: homomorphic computation
	// without any ability to decrypt.
	RoleServer
)

// Context holds one keyed BGV instance. It is safe to share between
// goroutines for evaluation; key generation and loading are not.
type Context struct {
	params  bgv.Parameters
	encoder *bgv.Encoder

	sk  *rlwe.SecretKey
	rlk *rlwe.RelinearizationKey

	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *bgv.Evaluator
}

// paramsDesc is the on-disk form of the parameter literal.
type paramsDesc struct {
	ParamsLit bgv.ParametersLiteral
}

// Generate creates a fresh keyed context. Key generation is CPU-heavy
// relative to everything else in this package.
func Generate() (*Context, error) {
	params, err := bgv.NewParametersFromLiteral(defaultParametersLiteral())
	if err != nil {
		return nil, fmt.Errorf("fhe: build parameters: %w", err)
	}

	kgen := rlwe.NewKeyGenerator(params)
	sk, _ := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)

	c := &Context{params: params, sk: sk, rlk: rlk}
	c.build()
	return c, nil
}

// build derives encoder/encryptor/decryptor/evaluator from whichever keys
// are present.
func (c *Context) build() {
	c.encoder = bgv.NewEncoder(c.params)
	if c.sk != nil {
		c.encryptor = rlwe.NewEncryptor(c.params, c.sk)
		c.decryptor = rlwe.NewDecryptor(c.params, c.sk)
	}
	if c.rlk != nil {
		evk := rlwe.NewMemEvaluationKeySet(c.rlk)
		c.evaluator = bgv.NewEvaluator(c.params, evk)
	}
}

// Save writes params plus both key files into dir, creating it if needed.
// The server key file holds only evaluation material and is the one an
// executor node ships with.
func (c *Context) Save(dir string) error {
	if c.sk == nil || c.rlk == nil {
		return ErrNoSecretKey
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fhe: create key dir: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&paramsDesc{ParamsLit: defaultParametersLiteral()}); err != nil {
		return &SerializationError{What: "parameters", Err: err}
	}
	if err := writeFileAtomic(filepath.Join(dir, ParamsFile), buf.Bytes()); err != nil {
		return err
	}

	skBytes, err := c.sk.MarshalBinary()
	if err != nil {
		return &SerializationError{What: "client key", Err: err}
	}
	if err := writeFileAtomic(filepath.Join(dir, ClientKeyFile), skBytes); err != nil {
		return err
	}

	rlkBytes, err := c.rlk.MarshalBinary()
	if err != nil {
		return &SerializationError{What: "server key", Err: err}
	}
	return writeFileAtomic(filepath.Join(dir, ServerKeyFile), rlkBytes)
}

// Load reads a context from dir for the given role. A missing key file is
// a startup-fatal KeyNotFoundError.
func Load(dir string, role Role) (*Context, error) {
	paramsPath := filepath.Join(dir, ParamsFile)
	raw, err := readKeyFile(paramsPath)
	if err != nil {
		return nil, err
	}
	var desc paramsDesc
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&desc); err != nil {
		return nil, &KeyLoadError{Path: paramsPath, Err: err}
	}
	params, err := bgv.NewParametersFromLiteral(desc.ParamsLit)
	if err != nil {
		return nil, &KeyLoadError{Path: paramsPath, Err: err}
	}

	c := &Context{params: params}

	if role == RoleFull || role == RoleClient {
		path := filepath.Join(dir, ClientKeyFile)
		raw, err := readKeyFile(path)
		if err != nil {
			return nil, err
		}
		sk := new(rlwe.SecretKey)
		if err := sk.UnmarshalBinary(raw); err != nil {
			return nil, &KeyLoadError{Path: path, Err: err}
		}
		c.sk = sk
	}

	if role == RoleFull || role == RoleServer {
		path := filepath.Join(dir, ServerKeyFile)
		raw, err := readKeyFile(path)
		if err != nil {
			return nil, err
		}
		rlk := new(rlwe.RelinearizationKey)
		if err := rlk.UnmarshalBinary(raw); err != nil {
			return nil, &KeyLoadError{Path: path, Err: err}
		}
		c.rlk = rlk
	}

	c.build()
	return c, nil
}

// KeysExist reports whether both key files are present in dir.
func KeysExist(dir string) bool {
	for _, name := range []string{ClientKeyFile, ServerKeyFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// CanDecrypt reports whether this context holds the secret key.
func (c *Context) CanDecrypt() bool { return c.decryptor != nil }

// CanEvaluate reports whether this context holds the evaluation key.
func (c *Context) CanEvaluate() bool { return c.evaluator != nil }

func readKeyFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &KeyNotFoundError{Path: path}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &KeyLoadError{Path: path, Err: err}
	}
	return raw, nil
}

func writeFileAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("fhe: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("fhe: rename %s: %w", path, err)
	}
	return nil
}
