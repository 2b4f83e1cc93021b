package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MaxStateURILen bounds the state_uri field on-chain.
const MaxStateURILen = 128

// statePDASeed derives the per-submitter state container address.
var statePDASeed = []byte("state")

// StateContainer is the per-submitter durable state pointer. Layout:
// discriminator(8) + owner(32) + state_hash(32) + state_uri(u32 length
// prefix + bytes) + version(8).
type StateContainer struct {
	Owner     solana.PublicKey
	StateHash [32]byte
	StateURI  string
	Version   uint64
}

// Initialized reports whether a transition has ever been recorded: an
// all-zero state hash marks an uninitialized container.
func (s *StateContainer) Initialized() bool {
	return s.StateHash != [32]byte{}
}

// StateContainerAddress derives the PDA for a submitter's container.
func StateContainerAddress(owner, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{statePDASeed, owner.Bytes()}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("ledger: derive state PDA: %w", err)
	}
	return addr, nil
}

// DecodeStateContainer parses a state container account.
func DecodeStateContainer(data []byte) (*StateContainer, error) {
	// disc(8) + owner(32) + hash(32) + len(4) minimum before the URI.
	const fixedPrefix = 8 + 32 + 32 + 4
	if len(data) < fixedPrefix+8 {
		return nil, fmt.Errorf("ledger: state container too short: %d bytes", len(data))
	}
	s := &StateContainer{
		Owner: solana.PublicKeyFromBytes(data[8:40]),
	}
	copy(s.StateHash[:], data[40:72])

	uriLen := binary.LittleEndian.Uint32(data[72:76])
	if uriLen > MaxStateURILen {
		return nil, fmt.Errorf("ledger: state URI length %d exceeds maximum %d", uriLen, MaxStateURILen)
	}
	end := fixedPrefix + int(uriLen)
	if len(data) < end+8 {
		return nil, fmt.Errorf("ledger: state container truncated: %d bytes", len(data))
	}
	s.StateURI = string(data[fixedPrefix:end])
	s.Version = binary.LittleEndian.Uint64(data[end:])
	return s, nil
}
