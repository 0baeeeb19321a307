package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/http/view"
	cognitoclient "notesweb/cmd/internal/infrastructure/aws/cognito"
	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testActor = &entity.User{ID: 1, SubUUID: "abc", Username: "ana", Email: "ana@example.com", Active: true}

type stubNoteService struct {
	mu       sync.Mutex
	notes    []*contract.NoteResponse
	listErr  apierror.ErrorResponse
	created  []*contract.CreateNoteRequest
	deleted  []string
	lists    int
	imageURL string
}

func (s *stubNoteService) ListNotes(_ context.Context, _ *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*contract.NoteResponse, len(s.notes))
	copy(out, s.notes)
	return out, nil
}

func (s *stubNoteService) CreateNote(_ context.Context, _ *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Name == "" || req.Description == "" {
		structured := apierror.NewStructured(http.StatusBadRequest)
		if req.Name == "" {
			structured.Add("name", "This field is required")
		}
		if req.Description == "" {
			structured.Add("description", "This field is required")
		}
		return nil, structured
	}

	s.created = append(s.created, req)
	note := &contract.NoteResponse{ID: "n" + string(rune('0'+len(s.created))), Name: req.Name, Description: req.Description}
	if req.HasFile() {
		note.Image = "media/abc/" + req.File.Filename
	}
	s.notes = append(s.notes, note)
	return note, nil
}

func (s *stubNoteService) DeleteNote(_ context.Context, _ *entity.User, id string) apierror.ErrorResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, note := range s.notes {
		if note.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return apierror.NotFoundError
}

func (s *stubNoteService) ResolveImageURL(_ context.Context, _ *entity.User, id string) (*contract.ImageURLResponse, apierror.ErrorResponse) {
	for _, note := range s.notes {
		if note.ID != id {
			continue
		}
		if note.Image == "" {
			return nil, apierror.NoteImageNotFoundError
		}
		return &contract.ImageURLResponse{URL: s.imageURL}, nil
	}
	return nil, apierror.NotFoundError
}

type stubAuthService struct {
	signInErr  apierror.ErrorResponse
	signUpErr  apierror.ErrorResponse
	confirmErr apierror.ErrorResponse
	resendErr  apierror.ErrorResponse
	signedOut  []string
}

func (s *stubAuthService) SignUp(_ context.Context, req *contract.SignUpRequest) (*contract.UserResponse, apierror.ErrorResponse) {
	if s.signUpErr != nil {
		return nil, s.signUpErr
	}
	return &contract.UserResponse{ID: 2, Username: req.Username, Email: req.Email}, nil
}

func (s *stubAuthService) ConfirmSignup(context.Context, *contract.ConfirmSignupRequest) apierror.ErrorResponse {
	return s.confirmErr
}

func (s *stubAuthService) ResendConfirmation(context.Context, *contract.ResendConfirmRequest) apierror.ErrorResponse {
	return s.resendErr
}

func (s *stubAuthService) SignIn(_ context.Context, req *contract.SignInRequest) (*service.SignInResult, apierror.ErrorResponse) {
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return &service.SignInResult{
		User:   testActor,
		Tokens: &cognitoclient.AuthCreate{AccessToken: "access", IDToken: "id", ExpiresIn: 3600},
		Claims: &utils.TokenData{Sub: testActor.SubUUID, Email: req.Email},
	}, nil
}

func (s *stubAuthService) SignOut(_ context.Context, req *contract.SignOutRequest) apierror.ErrorResponse {
	s.signedOut = append(s.signedOut, req.AccessToken)
	return nil
}

type stubConnections struct {
	closed []int64
}

func (s *stubConnections) CloseUserConnections(_ context.Context, userID int64) {
	s.closed = append(s.closed, userID)
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	return e
}

// multipartBody builds a note form. An empty fileName leaves the file out.
func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func withUser(c echo.Context) echo.Context {
	c.Set(utils.ContextKeyUser, testActor)
	return c
}

func newRequest(method, target string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	return req
}
