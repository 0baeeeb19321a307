package service

import (
	"context"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/domain/events"
	"notesweb/cmd/internal/infrastructure/aws/storage"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

type NoteRepository interface {
	FindAllByOwner(ownerSub string) ([]*entity.Note, error)
	FindByID(ownerSub, id string) (*entity.Note, error)
	Create(note *entity.Note) error
	Delete(note *entity.Note) error
}

// EventDispatcher pushes socket events to the live connections of a user.
type EventDispatcher interface {
	Dispatch(ctx context.Context, userID int64, evt events.SocketEvent)
}

type DefaultNoteService struct {
	NoteRepo NoteRepository
	S3       storage.S3Client
	Events   EventDispatcher
	Validate *validator.Validate
}

// NewNoteService wires the note operations. dispatcher may be nil, in which case
// no live updates are sent.
func NewNoteService(
	noteRepo NoteRepository,
	s3 storage.S3Client,
	dispatcher EventDispatcher,
	validate *validator.Validate,
) *DefaultNoteService {
	return &DefaultNoteService{
		NoteRepo: noteRepo,
		S3:       s3,
		Events:   dispatcher,
		Validate: validate,
	}
}

// ListNotes returns every note of the actor in the order the repository yields
// them. Signed URLs are resolved concurrently and the whole call fails if any
// of them fails.
func (n *DefaultNoteService) ListNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindAllByOwner(actor.SubUUID)
	if err != nil {
		log.Errorf("failed to fetch notes of %s: %v", actor.SubUUID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.NoteResponse, len(notes))
	g, gctx := errgroup.WithContext(ctx)
	for i, note := range notes {
		resp[i] = toNoteResponse(note)
		if !note.HasImage() {
			continue
		}

		i, note := i, note
		g.Go(func() error {
			url, err := n.S3.PresignGetURL(gctx, note.Image)
			if err != nil {
				return err
			}
			resp[i].ImageURL = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("failed to resolve image urls of %s: %v", actor.SubUUID, err)
		return nil, apierror.InternalServerError
	}
	return resp, nil
}

// CreateNote stores a new note. When req carries a file it is uploaded first,
// under the actor's namespace, and its path becomes the note image.
func (n *DefaultNoteService) CreateNote(ctx context.Context, actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := n.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var image string
	if req.HasFile() {
		key, apierr := n.uploadNoteFile(ctx, actor, req.File)
		if apierr != nil {
			return nil, apierr
		}
		image = key
	}

	now := utils.NowUTC()
	note := &entity.Note{
		ID:          uuid.NewString(),
		OwnerSub:    actor.SubUUID,
		Name:        req.Name,
		Description: req.Description,
		Image:       image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := n.NoteRepo.Create(note); err != nil {
		log.Errorf("failed to create note: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := toNoteResponse(note)
	go n.dispatch(actor, &events.NoteCreated{NoteResponse: toNoteResponse(note)})
	return resp, nil
}

// DeleteNote removes the note of the actor identified by id. The attached file
// is removed on a best-effort basis: any failure there is ignored.
func (n *DefaultNoteService) DeleteNote(ctx context.Context, actor *entity.User, id string) apierror.ErrorResponse {
	note, apierr := n.fetchNote(actor, id)
	if apierr != nil {
		return apierr
	}

	if note.HasImage() {
		_ = n.S3.DeleteFile(ctx, note.Image)
	}

	if err := n.NoteRepo.Delete(note); err != nil {
		log.Errorf("failed to delete note %s: %v", note.ID, err)
		return apierror.InternalServerError
	}

	go n.dispatch(actor, &events.NoteDeleted{NoteID: note.ID})
	return nil
}

// ResolveImageURL asks storage for a fresh signed URL of the note image.
func (n *DefaultNoteService) ResolveImageURL(ctx context.Context, actor *entity.User, id string) (*contract.ImageURLResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(actor, id)
	if apierr != nil {
		return nil, apierr
	}

	if !note.HasImage() {
		return nil, apierror.NoteImageNotFoundError
	}

	url, err := n.S3.PresignGetURL(ctx, note.Image)
	if err != nil {
		log.Errorf("failed to sign url for %s: %v", note.Image, err)
		return nil, apierror.InternalServerError
	}
	return &contract.ImageURLResponse{URL: url}, nil
}

func (n *DefaultNoteService) fetchNote(actor *entity.User, id string) (*entity.Note, apierror.ErrorResponse) {
	if strings.TrimSpace(id) == "" {
		return nil, apierror.NewMissingParamError("id")
	}

	note, err := n.NoteRepo.FindByID(actor.SubUUID, id)
	if err != nil {
		log.Errorf("failed to fetch note %s: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if note == nil {
		return nil, apierror.NotFoundError
	}
	return note, nil
}

func (n *DefaultNoteService) uploadNoteFile(ctx context.Context, actor *entity.User, header *multipart.FileHeader) (string, apierror.ErrorResponse) {
	if header.Size > contract.MaxNoteFileSizeBytes {
		return "", apierror.NewNoteContentTooLargeError(contract.MaxNoteFileSizeBytes)
	}

	key, ok := NoteFileKey(actor.SubUUID, header.Filename)
	if !ok {
		return "", apierror.MissingFileNameError
	}

	data, apierr := readNoteFile(header)
	if apierr != nil {
		return "", apierr
	}

	stored, err := n.S3.UploadFile(ctx, data, key)
	if err != nil {
		log.Errorf("failed to upload %s: %v", key, err)
		return "", apierror.InternalServerError
	}
	return stored, nil
}

func (n *DefaultNoteService) dispatch(actor *entity.User, evt events.SocketEvent) {
	if n.Events == nil {
		return
	}
	n.Events.Dispatch(context.Background(), actor.ID, evt)
}

// NoteFileKey builds the storage path of an uploaded file: media/{sub}/{name}.
// Only the base name of filename is kept. It reports false when nothing usable
// is left of the name.
func NoteFileKey(sub, filename string) (string, bool) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	return contract.StoragePrefix + sub + "/" + name, true
}

func readNoteFile(header *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := header.Open()
	if err != nil {
		log.Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	// header.Size is client supplied
	data, err := io.ReadAll(io.LimitReader(file, contract.MaxNoteFileSizeBytes+1))
	if err != nil {
		log.Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}

	if len(data) > contract.MaxNoteFileSizeBytes {
		return nil, apierror.NewNoteContentTooLargeError(contract.MaxNoteFileSizeBytes)
	}
	return data, nil
}

func toNoteResponse(note *entity.Note) *contract.NoteResponse {
	return &contract.NoteResponse{
		ID:          note.ID,
		Name:        note.Name,
		Description: note.Description,
		Image:       note.Image,
		CreatedAt:   utils.FormatEpoch(note.CreatedAt),
	}
}
