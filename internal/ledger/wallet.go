package ledger

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// LoadWallet reads a keypair file in solana-keygen JSON format (an array
// of byte values). A missing wallet is startup-fatal for the executor.
func LoadWallet(path string) (solana.PrivateKey, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ledger: wallet file not found: %s", path)
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: load wallet %s: %w", path, err)
	}
	return key, nil
}

// GenerateWallet creates a new keypair and writes it in solana-keygen
// JSON format.
func GenerateWallet(path string) (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ledger: generate keypair: %w", err)
	}

	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	content, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode keypair: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return nil, fmt.Errorf("ledger: write wallet %s: %w", path, err)
	}
	return key, nil
}
