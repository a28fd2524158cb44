// Package queue carries analysis jobs from request handlers to background
// workers.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull   = errors.New("analysis queue is full")
	ErrQueueClosed = errors.New("analysis queue is closed")
)

type JobKind string

const (
	KindAnalyze   JobKind = "analyze"
	KindReanalyze JobKind = "reanalyze"
)

type Job struct {
	ID        string  `json:"id"`
	ArtworkID string  `json:"artworkId"`
	OwnerID   uint    `json:"ownerId"`
	Kind      JobKind `json:"kind"`
	// PriorDescription is passed to the model as context on re-analysis.
	PriorDescription string    `json:"priorDescription,omitempty"`
	EnqueuedAt       time.Time `json:"enqueuedAt"`
}

func NewJob(artworkID string, ownerID uint, kind JobKind) Job {
	return Job{
		ID:         uuid.NewString(),
		ArtworkID:  artworkID,
		OwnerID:    ownerID,
		Kind:       kind,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Handler processes one job. Returned errors are logged; the job is not redelivered.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Run blocks, feeding jobs to h until ctx ends or the queue is closed and drained.
	Run(ctx context.Context, h Handler) error
	Close() error
}
