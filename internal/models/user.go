package models

import "time"

type User struct {
	ID           int64     `db:"user_id"`
	IsPrivileged bool      `db:"is_privileged"`
	CreatedAt    time.Time `db:"created_at"`
}

// UsageRecord is one append-only ledger entry per billed transcription.
type UsageRecord struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Seconds   int       `db:"seconds"`
	CreatedAt time.Time `db:"created_at"`
}

// Admission is the result of the quota gate. Unlimited marks privileged
// users, for whom Remaining carries no meaning.
type Admission struct {
	Allowed   bool
	Unlimited bool
	Remaining int
}

type UsageSummary struct {
	UserID        int64
	ConsumedToday int
	TotalSeconds  int
	IsPrivileged  bool
}
