package events

import "notesweb/cmd/internal/contract"

type SocketEvent interface {
	GetType() contract.EventType
}

type Ack struct{}

func (*Ack) GetType() contract.EventType {
	return contract.EventAck
}

type SessionExpired struct{}

func (*SessionExpired) GetType() contract.EventType {
	return contract.EventSessionExpired
}

// NoteCreated carries the created note. ImageURL is never filled in here,
// receivers are expected to refetch the list.
type NoteCreated struct {
	*contract.NoteResponse
}

func (e *NoteCreated) GetType() contract.EventType {
	return contract.EventNoteCreated
}

type NoteDeleted struct {
	NoteID string `json:"id"`
}

func (e *NoteDeleted) GetType() contract.EventType {
	return contract.EventNoteDeleted
}
