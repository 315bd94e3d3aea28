// Package session keeps per-student state between API calls. Stores give
// each read-modify-write its own exclusive section; last write wins.
package session

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/ansarctica/ross/internal/degreeplan"
	"github.com/ansarctica/ross/internal/engine"
)

var ErrNotFound = errors.New("session: not found")

type Session struct {
	ID           string               `json:"id"`
	Majors       []string             `json:"majors,omitempty"`
	CoursesTaken []string             `json:"courses_taken,omitempty"`
	Plan         *degreeplan.Registry `json:"plan,omitempty"`
	Skipped      []string             `json:"skipped,omitempty"`
	Completed    []string             `json:"completed,omitempty"`
	ScheduleID   string               `json:"schedule_id,omitempty"`
	Schedule     *engine.Response     `json:"schedule,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	// Update loads the session (or a fresh one), applies fn and saves the
	// result. If fn returns an error nothing is written.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(b []byte) (*Session, error) {
	var s Session
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func apply(id string, prev []byte, fn func(*Session) error, now time.Time) (*Session, []byte, error) {
	s := &Session{ID: id}
	if prev != nil {
		var err error
		if s, err = decode(prev); err != nil {
			return nil, nil, err
		}
	}
	if err := fn(s); err != nil {
		return nil, nil, err
	}
	s.ID = id
	s.UpdatedAt = now
	b, err := encode(s)
	if err != nil {
		return nil, nil, err
	}
	return s, b, nil
}
