package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"testing"

	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/domain/events"
	"notesweb/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type memNoteRepo struct {
	mu    sync.Mutex
	notes []*entity.Note
	err   error
}

func (m *memNoteRepo) FindAllByOwner(ownerSub string) ([]*entity.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Note
	for _, n := range m.notes {
		if n.OwnerSub == ownerSub {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memNoteRepo) FindByID(ownerSub, id string) (*entity.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.OwnerSub == ownerSub && n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memNoteRepo) Create(note *entity.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *note
	m.notes = append(m.notes, &cp)
	return nil
}

func (m *memNoteRepo) Delete(note *entity.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notes {
		if n.ID == note.ID && n.OwnerSub == note.OwnerSub {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return nil
		}
	}
	return nil
}

type memStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	deleteErr  error
	presigns   int
	presignErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) UploadFile(_ context.Context, data []byte, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return key, nil
}

func (m *memStorage) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memStorage) PresignGetURL(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presigns++
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://bucket.example/" + key + "?X-Amz-Signature=sig", nil
}

type recordedEvent struct {
	userID int64
	evt    events.SocketEvent
}

type chanDispatcher struct {
	ch chan recordedEvent
}

func (d *chanDispatcher) Dispatch(_ context.Context, userID int64, evt events.SocketEvent) {
	d.ch <- recordedEvent{userID: userID, evt: evt}
}

var errBoom = errors.New("boom")

func testValidator() *validator.Validate {
	return validators.New()
}

func actor(sub string) *entity.User {
	return &entity.User{ID: 10, SubUUID: sub, Username: sub, Active: true}
}

// fileHeader parses a one-file multipart form so the header can be opened.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["image"]
	require.Len(t, files, 1)
	return files[0]
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
