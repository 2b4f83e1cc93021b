package executor

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/fhestate/fhestate/internal/cache"
	"github.com/fhestate/fhestate/internal/config"
	"github.com/fhestate/fhestate/internal/engine"
	"github.com/fhestate/fhestate/internal/fhe"
	"github.com/fhestate/fhestate/internal/ledger"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Service is the executor node: one cooperative loop alternating between
// polling the ledger and processing at most one task per cycle.
type Service struct {
	cfg       config.Config
	logger    *log.Logger
	logLevel  LogLevel
	logFile   io.Closer
	runID     string
	programID solana.PublicKey

	fileLock   *FileLock
	client     *ledger.Client
	poller     *ledger.Poller
	queue      *Queue
	store      *cache.Cache
	cacheStats *cache.Watcher
	engine     *engine.Engine
	submitter  *ledger.Submitter
	history    *History
	policy     RetryPolicy

	ticker   *time.Ticker
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// New wires the executor from configuration. Startup failures here —
// missing wallet, missing server key, bad program id — are fatal; the
// process must not run without them.
func New(cfg config.Config) (*Service, error) {
	dataDir := cfg.Executor.DataDir
	logPath := filepath.Join(dataDir, "logs", "executor.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("executor: create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("executor: open log file: %w", err)
	}
	logger := log.New(io.MultiWriter(os.Stderr, logFile), "", 0)

	programID, err := solana.PublicKeyFromBase58(cfg.Program.ID)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("executor: parse program id %q: %w", cfg.Program.ID, err)
	}

	wallet, err := ledger.LoadWallet(cfg.Keys.Wallet)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	// The node only ever needs the evaluation key: it computes over
	// ciphertexts and must not be able to decrypt them.
	fhectx, err := fhe.Load(cfg.Keys.Dir, fhe.RoleServer)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := ledger.NewClient(cfg.RPC.Endpoint)
	store := cache.New(cfg.Cache.Dir, logger)

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		logLevel:  parseLogLevel(cfg.Logging.Level),
		logFile:   logFile,
		runID:     uuid.NewString(),
		programID: programID,
		fileLock:  NewFileLock(filepath.Join(dataDir, "executor.lock")),
		client:    client,
		poller:    ledger.NewPoller(client, programID, logger),
		queue:     NewQueue(cfg.Executor.QueueCapacity),
		store:     store,
		engine:    engine.New(fhectx, store, logger),
		submitter: ledger.NewSubmitter(client, programID, wallet, logger),
		policy: RetryPolicy{
			MaxAttempts: cfg.Executor.Retry.MaxAttempts,
			BaseBackoff: time.Duration(cfg.Executor.Retry.BaseBackoffSec) * time.Second,
		},
		ticker: time.NewTicker(cfg.PollInterval()),
		ctx:    ctx,
		cancel: cancel,
	}
	return s, nil
}

// Run starts the loop and blocks until shutdown completes.
func (s *Service) Run() error {
	if err := s.fileLock.TryLock(); err != nil {
		return fmt.Errorf("executor lock: %w", err)
	}
	s.log(LogLevelInfo, "executor starting pid=%d run=%s program=%s executor_key=%s",
		os.Getpid(), s.runID, s.programID, s.submitter.Executor())

	history, err := OpenHistory(filepath.Join(s.cfg.Executor.DataDir, "history.db"))
	if err != nil {
		s.fileLock.Unlock()
		return err
	}
	s.history = history

	stats, err := cache.NewWatcher(s.store)
	if err != nil {
		s.log(LogLevelWarn, "cache stats watcher unavailable: %v", err)
	} else {
		s.cacheStats = stats
	}

	if !s.client.Connected(s.ctx) {
		s.log(LogLevelWarn, "rpc endpoint %s not healthy at startup, continuing", s.cfg.RPC.Endpoint)
	}

	s.wg.Add(1)
	go s.loop()

	s.log(LogLevelInfo, "executor ready, polling every %s", s.cfg.PollInterval())
	s.waitSignals()
	return nil
}

// loop is the Idle → Polling → Processing → Idle cycle. Per-cycle errors
// log and return to idle; nothing here crashes the loop.
func (s *Service) loop() {
	defer s.wg.Done()

	s.cycle()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			s.cycle()
		}
	}
}

func (s *Service) cycle() {
	if err := s.pollOnce(); err != nil {
		s.log(LogLevelWarn, "poll: %v", err)
	}
	if err := s.processOne(); err != nil {
		s.log(LogLevelError, "process: %v", err)
	}
	if s.cacheStats != nil {
		st := s.cacheStats.Stats()
		s.log(LogLevelDebug, "cycle done queue=%d cache_entries=%d cache_bytes=%d",
			s.queue.Len(), st.Entries, st.TotalBytes)
	}
}

func (s *Service) pollOnce() error {
	result, err := s.poller.Poll(s.ctx)
	if err != nil {
		return err
	}
	if result.Challenged > 0 {
		s.log(LogLevelWarn, "%d challenged task(s) on-chain, not handled", result.Challenged)
	}
	for _, task := range result.Pending {
		added, err := s.queue.Push(task)
		if errors.Is(err, ErrQueueFull) {
			// Backpressure: drop and let the next poll rediscover.
			s.log(LogLevelWarn, "queue full, dropping task #%d until next cycle", task.ID)
			break
		}
		if added {
			s.log(LogLevelInfo, "new task detected #%d account=%s op=%s",
				task.ID, task.Account, fhe.OpName(task.Operation))
		}
	}
	return nil
}

// processOne drains a single task. A failed task is not re-enqueued: its
// on-chain status is still pending, so re-polling is the retry path,
// gated by the backoff policy.
func (s *Service) processOne() error {
	task, ok := s.queue.Pop()
	if !ok {
		return nil
	}
	account := task.Account.String()

	rec, err := s.history.Get(s.ctx, account)
	if err != nil {
		return err
	}
	if rec.DeadLettered {
		s.log(LogLevelDebug, "task #%d dead-lettered, skipping", task.ID)
		return nil
	}
	if !rec.NextEligible.IsZero() && time.Now().Before(rec.NextEligible) {
		s.log(LogLevelDebug, "task #%d backing off until %s", task.ID, rec.NextEligible.Format(time.RFC3339))
		return nil
	}

	err = s.execute(task)
	if err == nil {
		return nil
	}

	s.log(LogLevelError, "task #%d failed: %v", task.ID, err)
	backoff := s.policy.Backoff(rec.Attempts + 1)
	attempts, histErr := s.history.RecordFailure(s.ctx, account, task.ID, err.Error(), s.runID, time.Now().Add(backoff))
	if histErr != nil {
		return histErr
	}
	if s.policy.Exhausted(attempts) {
		s.log(LogLevelError, "task #%d exhausted after %d attempts, dead-lettering", task.ID, attempts)
		return s.history.DeadLetter(s.ctx, account, err.Error())
	}
	return nil
}

func (s *Service) execute(task ledger.FheTask) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.TaskTimeout())
	defer cancel()

	// Refetch the account: the queued snapshot may be a full poll
	// interval old and another executor may have completed it.
	data, err := s.client.AccountData(ctx, task.Account)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("task account %s no longer exists", task.Account)
	}
	full, err := ledger.DecodeTask(data)
	if err != nil {
		return err
	}
	if full.Status != ledger.StatusPending {
		s.log(LogLevelInfo, "task #%d already %s, skipping", task.ID, full.Status)
		return nil
	}

	// The submitted ciphertext is content-addressed by its own hash.
	inputURI := cache.Scheme + hex.EncodeToString(full.InputHash[:])
	inputBytes, err := s.store.Load(inputURI)
	if err != nil {
		return err
	}

	stateURI, err := s.currentStateURI(ctx, full.Submitter)
	if err != nil {
		return err
	}

	s.log(LogLevelInfo, "processing task #%d op=%s state=%q", task.ID, fhe.OpName(full.Operation), stateURI)
	result, err := s.engine.Apply(ctx, stateURI, inputBytes, full.Operation)
	if err != nil {
		return err
	}

	sig, err := s.submitter.Complete(ctx, task, result.ProofHash)
	if err != nil {
		return err
	}
	return s.history.RecordCompletion(s.ctx, task.Account.String(), task.ID,
		sig.String(), hex.EncodeToString(result.ProofHash[:]), s.runID)
}

// currentStateURI reads the submitter's state container, returning "" for
// a fresh submitter (which bootstraps the state from the input).
func (s *Service) currentStateURI(ctx context.Context, submitter solana.PublicKey) (string, error) {
	pda, err := ledger.StateContainerAddress(submitter, s.programID)
	if err != nil {
		return "", err
	}
	data, err := s.client.AccountData(ctx, pda)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}
	container, err := ledger.DecodeStateContainer(data)
	if err != nil {
		return "", err
	}
	if !container.Initialized() {
		return "", nil
	}
	return container.StateURI, nil
}

func (s *Service) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	s.log(LogLevelInfo, "received signal=%s, shutting down", sig)

	go func() {
		<-sigCh
		s.log(LogLevelWarn, "received second signal, forcing exit")
		os.Exit(1)
	}()

	s.Shutdown()
}

// Shutdown stops the loop and releases resources. Idempotent.
func (s *Service) Shutdown() {
	s.shutdown.Do(func() {
		s.cancel()
		s.ticker.Stop()
		s.wg.Wait()

		if s.cacheStats != nil {
			s.cacheStats.Close()
		}
		if s.history != nil {
			s.history.Close()
		}
		s.fileLock.Unlock()
		s.log(LogLevelInfo, "shutdown complete")
		if s.logFile != nil {
			s.logFile.Close()
		}
	})
}

func (s *Service) log(level LogLevel, format string, args ...any) {
	if level < s.logLevel {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	s.logger.Printf("%s %s executor: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
