package service

import (
	"context"
	"net/url"
	"path"
	"strings"

	"peertutor/internal/models"
	"peertutor/internal/store"
	"peertutor/internal/validation"

	"github.com/google/uuid"
)

const uploadBaseURL = "/uploads/"

type ResourceService struct {
	store *store.Store
}

// UploadInput is the metadata of an uploaded file. The file body itself
// is not stored.
type UploadInput struct {
	TutorID     string
	Title       string
	Description string
	SubjectID   string
	FileName    string
	FileType    string
	Size        int64
}

func NewResourceService(s *store.Store) *ResourceService {
	return &ResourceService{store: s}
}

// List returns every resource, optionally narrowed to a subject given by id
// or case-insensitive name.
func (s *ResourceService) List(subject string) []models.Resource {
	all := s.store.GetResources()
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return all
	}
	out := []models.Resource{}
	for _, r := range all {
		if r.Subject.ID == subject || strings.EqualFold(r.Subject.Name, subject) {
			out = append(out, r)
		}
	}
	return out
}

func (s *ResourceService) Upload(ctx context.Context, in UploadInput) (models.Resource, error) {
	callLog.LogServiceCall(ctx, "resource", "upload", map[string]any{"type": in.FileType, "size": in.Size})

	if _, ok := s.store.GetTutor(in.TutorID); !ok {
		return models.Resource{}, models.NewForbiddenError("Only tutors can upload resources")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Resource{}, models.NewValidationError("title is required")
	}
	if err := validation.ValidateResourceFile(in.Size, in.FileType); err != nil {
		return models.Resource{}, models.NewValidationError(err.Error())
	}
	sub, ok := s.store.GetSubject(in.SubjectID)
	if !ok {
		return models.Resource{}, models.NewValidationError("unknown subject " + in.SubjectID)
	}

	id := uuid.NewString()
	name := path.Base(strings.ReplaceAll(in.FileName, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return s.store.AddResource(models.Resource{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		FileURL:     uploadBaseURL + id + "/" + url.PathEscape(name),
		UploadedBy:  in.TutorID,
		Subject:     sub,
		FileType:    in.FileType,
		Size:        in.Size,
	}), nil
}
