package domain

import "time"

// FeedRecord is one persisted accepted item. Destination partitions the
// retention store: multiple tasks writing into the same output file share
// one destination and their records interleave by published time. A record
// is owned by the store once inserted and never mutated, only deleted.
type FeedRecord struct {
	ID          int64     `db:"id"`
	Destination string    `db:"destination"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Link        string    `db:"link"`
	Published   time.Time `db:"published"`
}

// RetentionPolicy bounds which records survive finalization.
// A value of -1 disables the corresponding bound.
type RetentionPolicy struct {
	MaxAgeDays int
	MaxItems   int
}

// Unlimited reports whether the policy keeps everything.
func (p RetentionPolicy) Unlimited() bool {
	return p.MaxAgeDays == -1 && p.MaxItems == -1
}

// Keep decides if a record published at the given time survives, with kept
// records already counted. Records are walked newest-first, so the count
// bound keeps the newest MaxItems records and evicts the rest.
func (p RetentionPolicy) Keep(published, now time.Time, kept int) bool {
	if p.MaxItems != -1 && kept >= p.MaxItems {
		return false
	}
	if p.MaxAgeDays != -1 && now.Sub(published) > time.Duration(p.MaxAgeDays)*24*time.Hour {
		return false
	}
	return true
}
