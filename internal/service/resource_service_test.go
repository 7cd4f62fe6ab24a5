package service

import (
	"context"
	"strings"
	"testing"

	"peertutor/internal/models"
	"peertutor/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceService_Upload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewResourceService(f.store)

	res, err := svc.Upload(context.Background(), UploadInput{
		TutorID:   f.tutor.ID,
		Title:     " Loops cheat sheet ",
		SubjectID: f.python.ID,
		FileName:  `C:\notes\loops sheet.pdf`,
		FileType:  "application/pdf",
		Size:      2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "Loops cheat sheet", res.Title)
	assert.Equal(t, f.tutor.ID, res.UploadedBy)
	assert.Equal(t, "Python", res.Subject.Name)
	assert.False(t, res.CreatedAt.IsZero())
	assert.True(t, strings.HasPrefix(res.FileURL, "/uploads/"+res.ID+"/"))
	assert.True(t, strings.HasSuffix(res.FileURL, "/loops%20sheet.pdf"))

	tutorRes, err := NewProfileService(f.store).TutorResources(f.tutor.ID)
	require.NoError(t, err)
	assert.Len(t, tutorRes, 1)
}

func TestResourceService_Upload_Rejects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewResourceService(f.store)

	valid := UploadInput{TutorID: f.tutor.ID, Title: "Notes", SubjectID: f.python.ID, FileName: "a.pdf", FileType: "application/pdf", Size: 10}
	tests := []struct {
		name   string
		mutate func(*UploadInput)
		code   string
	}{
		{"tutee uploads", func(in *UploadInput) { in.TutorID = f.tutee.ID }, models.CodeForbidden},
		{"blank title", func(in *UploadInput) { in.Title = "  " }, models.CodeValidation},
		{"executable", func(in *UploadInput) { in.FileType = "application/x-msdownload" }, models.CodeValidation},
		{"too large", func(in *UploadInput) { in.Size = validation.MaxResourceSize + 1 }, models.CodeValidation},
		{"unknown subject", func(in *UploadInput) { in.SubjectID = "sub-missing" }, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Upload(context.Background(), in)
			assertAppError(t, err, tt.code)
		})
	}
	assert.Empty(t, svc.List(""))
}

func TestResourceService_List(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewResourceService(f.store)
	ctx := context.Background()

	for _, sub := range []string{f.python.ID, f.algebra.ID, f.python.ID} {
		_, err := svc.Upload(ctx, UploadInput{TutorID: f.tutor.ID, Title: "Notes", SubjectID: sub, FileName: "n.png", FileType: "image/png", Size: 1})
		require.NoError(t, err)
	}

	assert.Len(t, svc.List(""), 3)
	assert.Len(t, svc.List("python"), 2)
	assert.Len(t, svc.List(f.algebra.ID), 1)
	assert.Empty(t, svc.List("chemistry"))
}
