package session

import (
	"errors"
	"time"
)

// Entry is a server-side session record keyed by the ID in the browser cookie
type Entry struct {
	Session   Session
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry has a deadline that has passed
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && e.ExpiresAt.Before(now)
}

type Repo interface {
	Upsert(sessionID string, entry Entry) error
	Get(sessionID string) (Entry, error)
	Delete(sessionID string) error
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Bind exposes one repo entry as a Store. Entries created through Set live for ttl.
func Bind(repo Repo, sessionID string, ttl time.Duration) Store {
	return &boundStore{repo: repo, id: sessionID, ttl: ttl}
}

type boundStore struct {
	repo Repo
	id   string
	ttl  time.Duration
}

func (b *boundStore) Get() (Session, error) {
	entry, err := b.repo.Get(b.id)
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	return entry.Session, nil
}

func (b *boundStore) Set(session Session) error {
	entry, err := b.repo.Get(b.id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	if err != nil {
		now := NowTimeFunc()
		entry = Entry{CreatedAt: now}
		if b.ttl > 0 {
			entry.ExpiresAt = now.Add(b.ttl)
		}
	}
	entry.Session = session
	return b.repo.Upsert(b.id, entry)
}

func (b *boundStore) Clear() error {
	return b.repo.Delete(b.id)
}
