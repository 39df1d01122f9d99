package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joern1811/wapay/internal/adapter/report/migrations"
	"github.com/joern1811/wapay/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteWriter writes the report of one run to a SQLite database. Like the
// xlsx file, the database is recreated on every run.
type SQLiteWriter struct {
	db      *sqlx.DB
	version string
	now     func() time.Time
}

type runRecord struct {
	ID        string    `db:"id"`
	Month     string    `db:"month"`
	Version   string    `db:"version"`
	CreatedAt time.Time `db:"created_at"`
}

type paymentRecord struct {
	RunID            string       `db:"run_id"`
	ContactName      string       `db:"contact_name"`
	ContactPhone     string       `db:"contact_phone"`
	SentAt           sql.NullTime `db:"sent_at"`
	TransactionID    string       `db:"transaction_id"`
	Amount           float64      `db:"amount"`
	PaymentMethod    string       `db:"payment_method"`
	PaymentDate      string       `db:"payment_date"`
	ImageFile        string       `db:"image_file"`
	Match            string       `db:"match"`
	ExtractionFailed bool         `db:"extraction_failed"`
	Error            string       `db:"error"`
}

// OpenSQLite replaces any database at path with a fresh one and applies
// the schema.
func OpenSQLite(path, version string) (*SQLiteWriter, error) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("replacing report database: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening report database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteWriter{db: db, version: version, now: time.Now}, nil
}

func applyMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Write stores the run and its rows and returns the number of rows stored.
func (s *SQLiteWriter) Write(ctx context.Context, rows []domain.ReportRow, month domain.Month) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := runRecord{
		ID:        uuid.NewString(),
		Month:     month.String(),
		Version:   s.version,
		CreatedAt: s.now().UTC(),
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO runs (id, month, version, created_at) VALUES (:id, :month, :version, :created_at)`,
		run); err != nil {
		return 0, fmt.Errorf("saving run: %w", err)
	}

	const insertPayment = `
        INSERT INTO payments (run_id, contact_name, contact_phone, sent_at, transaction_id, amount,
                              payment_method, payment_date, image_file, match, extraction_failed, error)
        VALUES (:run_id, :contact_name, :contact_phone, :sent_at, :transaction_id, :amount,
                :payment_method, :payment_date, :image_file, :match, :extraction_failed, :error)`

	for _, row := range rows {
		rec := paymentRecord{
			RunID:            run.ID,
			ContactName:      row.ContactName,
			ContactPhone:     row.ContactPhone,
			SentAt:           sql.NullTime{Time: row.SentAt, Valid: !row.SentAt.IsZero()},
			TransactionID:    row.Payment.TransactionID,
			Amount:           row.Payment.Amount,
			PaymentMethod:    row.Payment.PaymentMethod,
			PaymentDate:      row.Payment.Date,
			ImageFile:        row.ImageFile,
			Match:            row.Strategy.String(),
			ExtractionFailed: row.ExtractionFailed,
			Error:            row.ExtractionError,
		}
		if _, err := tx.NamedExecContext(ctx, insertPayment, rec); err != nil {
			return 0, fmt.Errorf("saving payment %s: %w", row.ImageFile, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing report: %w", err)
	}
	return len(rows), nil
}

func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}
