package contract

import "mime/multipart"

const MaxNoteFileSizeBytes = 30 * 1024 * 1024

// StoragePrefix is the root under which every uploaded note file lives.
// Objects are namespaced as media/{identity}/{file name}.
const StoragePrefix = "media/"

type NoteResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// CreateNoteRequest is the typed payload of the "create note" form.
// File is nil when no file was attached.
type CreateNoteRequest struct {
	Name        string                `json:"name" form:"name" validate:"required"`
	Description string                `json:"description" form:"description" validate:"required"`
	File        *multipart.FileHeader `json:"-" form:"-"`
}

// HasFile reports whether the submitted form carried a named file.
func (r *CreateNoteRequest) HasFile() bool {
	return r.File != nil && r.File.Filename != ""
}

type ImageURLResponse struct {
	URL string `json:"url"`
}
