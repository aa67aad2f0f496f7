// Package backend assembles the goal repository selected by DATA_BACKEND.
package backend

import (
	"context"

	"goals/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

type BackendResult struct {
	// Repository is the goal service wrapping the selected store.
	Repository store.Repository
	Ready      ReadyFunc
	Cleanup    CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
