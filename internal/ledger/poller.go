package ledger

import (
	"context"
	"log"

	"github.com/gagliardetto/solana-go"
)

// Poller discovers pending work by rescanning every program-owned account
// each cycle. Rediscovery-until-completed is deliberately the system's
// only retry mechanism: a task stays visible here until its on-chain
// status changes.
type Poller struct {
	client    *Client
	programID solana.PublicKey
	logger    *log.Logger
}

// PollResult is one scan's outcome.
type PollResult struct {
	Pending []FheTask
	// Challenged counts tasks in challenged status; the executor does not
	// react to them beyond reporting.
	Challenged int
	// Skipped counts accounts too short to be task records.
	Skipped int
}

func NewPoller(client *Client, programID solana.PublicKey, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{client: client, programID: programID, logger: logger}
}

// Poll fetches and decodes all program accounts, returning pending tasks
// in scan order. Undersized accounts are skipped, never errors.
func (p *Poller) Poll(ctx context.Context) (*PollResult, error) {
	accounts, err := p.client.ProgramAccounts(ctx, p.programID)
	if err != nil {
		return nil, err
	}

	result := &PollResult{}
	for _, account := range accounts {
		if len(account.Data) < TaskAccountMinLen {
			result.Skipped++
			continue
		}
		task, err := DecodeTask(account.Data)
		if err != nil {
			result.Skipped++
			continue
		}
		switch task.Status {
		case StatusPending:
			result.Pending = append(result.Pending, FheTask{
				Account:   account.Pubkey,
				ID:        task.ID,
				Operation: task.Operation,
				Status:    task.Status,
			})
		case StatusChallenged:
			result.Challenged++
		}
	}
	return result, nil
}
