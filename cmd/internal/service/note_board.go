package service

import (
	"context"
	"sync"
	"time"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"
)

// NoteOperations is the part of the note service a board drives.
type NoteOperations interface {
	ListNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, actor *entity.User, id string) apierror.ErrorResponse
}

// NoteBoard is the note list shown to one signed in session.
//
// Creating a note refetches the whole list, deleting one drops it locally by
// id without asking the backend again. Concurrent fetches are not cancelled,
// the last one to finish wins.
type NoteBoard struct {
	ops   NoteOperations
	actor *entity.User

	mu       sync.Mutex
	notes    []*contract.NoteResponse
	loadedAt int64
}

func NewNoteBoard(ops NoteOperations, actor *entity.User) *NoteBoard {
	return &NoteBoard{ops: ops, actor: actor}
}

// Refresh replaces the list with a fresh fetch. On failure the previous list
// is kept.
func (b *NoteBoard) Refresh(ctx context.Context) apierror.ErrorResponse {
	notes, apierr := b.ops.ListNotes(ctx, b.actor)
	if apierr != nil {
		return apierr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes = notes
	b.loadedAt = utils.NowUTC()
	return nil
}

func (b *NoteBoard) Create(ctx context.Context, req *contract.CreateNoteRequest) apierror.ErrorResponse {
	if _, apierr := b.ops.CreateNote(ctx, b.actor, req); apierr != nil {
		return apierr
	}
	return b.Refresh(ctx)
}

func (b *NoteBoard) Delete(ctx context.Context, id string) apierror.ErrorResponse {
	if apierr := b.ops.DeleteNote(ctx, b.actor, id); apierr != nil {
		return apierr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.notes[:0]
	for _, note := range b.notes {
		if note.ID != id {
			kept = append(kept, note)
		}
	}
	b.notes = kept
	return nil
}

// Notes returns a copy of the current list.
func (b *NoteBoard) Notes() []*contract.NoteResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*contract.NoteResponse, len(b.notes))
	copy(out, b.notes)
	return out
}

func (b *NoteBoard) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadedAt != 0
}

// Stale reports whether the list was never loaded or is older than maxAge.
func (b *NoteBoard) Stale(maxAge time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadedAt == 0 {
		return true
	}
	return utils.NowUTC()-b.loadedAt > maxAge.Milliseconds()
}
