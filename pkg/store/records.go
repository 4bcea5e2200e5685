package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/feedmill/feedmill/pkg/domain"
)

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// CreateRecord appends a record and assigns its ID. Always succeeds unless
// the medium is unavailable, duplicates are expected when several tasks feed
// one destination and are kept as-is.
func (s *Store) CreateRecord(ctx context.Context, record *domain.FeedRecord) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			INSERT INTO records (destination, title, description, link, published)
			VALUES (:destination, :title, :description, :link, :published)
		`
		result, err := s.conn.NamedExecContext(ctx, query, record)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("insert record: %w", err)}
		}

		id, err := result.LastInsertId()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get last insert id: %w", err)}
		}
		record.ID = id
		return nil
	})
}

// ListRecords returns all records for a destination ordered by published
// time descending. Ties on published time break FIFO, the earlier insert
// comes first among equals.
func (s *Store) ListRecords(ctx context.Context, destination string) ([]domain.FeedRecord, error) {
	var records []domain.FeedRecord
	query := `
		SELECT id, destination, title, description, link, published
		FROM records
		WHERE destination = ?
		ORDER BY published DESC, id ASC
	`
	if err := s.conn.SelectContext(ctx, &records, query, destination); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// DeleteRecord permanently removes a record, used during retention eviction
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		result, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("delete record: %w", err)}
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get rows affected: %w", err)}
		}
		if rowsAffected == 0 {
			return &criticalError{err: fmt.Errorf("record %d not found", id)}
		}
		return nil
	})
}

// ClearDestination deletes every record for a destination. Used when history
// tracking is disabled for the destination, so the log does not grow without
// anyone ever reading it.
func (s *Store) ClearDestination(ctx context.Context, destination string) (int64, error) {
	var deleted int64
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	err := retrier.Do(ctx, func() error {
		result, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE destination = ?`, destination)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("clear destination: %w", err)}
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get rows affected: %w", err)}
		}
		return nil
	})
	return deleted, err
}

// CountRecords returns the number of records held for a destination
func (s *Store) CountRecords(ctx context.Context, destination string) (int64, error) {
	var count int64
	err := s.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM records WHERE destination = ?`, destination)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}
