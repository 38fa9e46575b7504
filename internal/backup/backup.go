package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	retry "github.com/sethvargo/go-retry"

	"github.com/dukerupert/bywater/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	Passphrase string
	DBPath     string
	Hour       int // UTC hour for the nightly snapshot
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Manager takes nightly encrypted snapshots of the SQLite database and
// uploads them to S3-compatible storage. Without S3 credentials and a
// passphrase it stays disabled.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db        *sql.DB
	records   *store.BackupStore
	client    s3Client
	logger    *slog.Logger
	now       func() time.Time
	retryBase time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg,
		db:        db,
		records:   bs,
		logger:    logger,
		now:       time.Now,
		retryBase: 2 * time.Second,
		status:    Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager has working configuration.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
	}
	m.status = s
	m.mu.Unlock()
}

// Start begins the nightly snapshot loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) checkSchedule(ctx context.Context) {
	now := m.now().UTC()
	if now.Hour() != m.cfg.Hour {
		return
	}

	last, err := m.records.LastSuccess()
	if err != nil {
		m.logger.Error("backup: last success", "error", err)
		return
	}
	if last != nil && last.UTC().Format("2006-01-02") == now.Format("2006-01-02") {
		return
	}

	if _, err := m.Run(ctx); err != nil {
		m.logger.Error("backup: scheduled snapshot failed", "error", err)
	}
}

// Run takes a snapshot immediately: checkpoint the WAL, encrypt a copy of
// the database file, and upload it. Returns the uploaded object key.
func (m *Manager) Run(ctx context.Context) (string, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return "", fmt.Errorf("backup not configured")
	}

	m.setStatus(Status{State: StateRunning})

	objectKey := fmt.Sprintf("snapshots/bywater-%s.db.enc", m.now().UTC().Format("2006-01-02T150405Z"))

	fail := func(err error) (string, error) {
		m.records.Record(objectKey, 0, "failed", err.Error())
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", err
	}

	// Checkpoint so the main db file contains all committed data
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fail(fmt.Errorf("wal checkpoint: %w", err))
	}

	plaintext, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return fail(fmt.Errorf("read database: %w", err))
	}

	salt, err := GenerateSalt()
	if err != nil {
		return fail(err)
	}

	encrypted, err := Encrypt(plaintext, m.cfg.Passphrase, salt)
	if err != nil {
		return fail(fmt.Errorf("encrypt snapshot: %w", err))
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(m.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(objectKey),
			Body:          bytes.NewReader(encrypted),
			ContentLength: aws.Int64(int64(len(encrypted))),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("upload snapshot: %w", err))
	}

	if err := m.records.Record(objectKey, int64(len(encrypted)), "ok", ""); err != nil {
		m.logger.Error("backup: record snapshot", "error", err)
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup: snapshot uploaded", "key", objectKey, "bytes", len(encrypted))

	return objectKey, nil
}

// Download streams an encrypted snapshot from S3.
func (m *Manager) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}
	return result.Body, nil
}
