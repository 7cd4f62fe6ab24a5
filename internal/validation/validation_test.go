package validation

import (
	"strings"
	"testing"
	"time"

	"peertutor/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "alex@example.com", false},
		{"Plus Alias", "alex+tutor@uni.edu", false},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Too Long", strings.Repeat("a", 64) + "@" + strings.Repeat("b", 190) + ".com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "password123", false},
		{"Exactly Min Length", "abcdefgh", false},
		{"Empty", "", true},
		{"Too Short", "abc1234", true},
		{"Too Long", strings.Repeat("x", 129), true},
		{"Unicode Counts Runes", "ÅÅÅÅÅÅÅÅ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProfileFields(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName("Alex Johnson"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("n", MaxNameLength+1)))

	assert.NoError(t, ValidateBio(strings.Repeat("b", MaxBioLength)))
	assert.Error(t, ValidateBio(strings.Repeat("b", MaxBioLength+1)))

	assert.NoError(t, ValidatePictureURL(""))
	assert.NoError(t, ValidatePictureURL("https://cdn.example.com/a.png"))
	assert.Error(t, ValidatePictureURL("ftp://cdn.example.com/a.png"))
	assert.Error(t, ValidatePictureURL("not a url"))
}

func TestValidateAvailability(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		slot    models.Availability
		wantErr bool
	}{
		{"Valid", models.Availability{Day: "Monday", StartTime: "09:00", EndTime: "12:00"}, false},
		{"Lowercase Day", models.Availability{Day: "monday", StartTime: "09:00", EndTime: "12:00"}, true},
		{"Weekend Alias", models.Availability{Day: "weekend", StartTime: "09:00", EndTime: "12:00"}, true},
		{"Bad Clock", models.Availability{Day: "Friday", StartTime: "9:00", EndTime: "12:00"}, true},
		{"Hour Out Of Range", models.Availability{Day: "Friday", StartTime: "09:00", EndTime: "24:00"}, true},
		{"Start After End", models.Availability{Day: "Friday", StartTime: "15:00", EndTime: "13:00"}, true},
		{"Empty Window", models.Availability{Day: "Friday", StartTime: "13:00", EndTime: "13:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAvailability(tt.slot)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSubject(t *testing.T) {
	t.Parallel()
	valid := models.Subject{Name: "Chemistry", Level: models.LevelAdvanced, HourlyRate: 45}
	assert.NoError(t, ValidateSubject(valid))

	noName := valid
	noName.Name = " "
	assert.Error(t, ValidateSubject(noName))

	badLevel := valid
	badLevel.Level = "Expert"
	assert.Error(t, ValidateSubject(badLevel))

	free := valid
	free.HourlyRate = 0
	assert.Error(t, ValidateSubject(free))
}

func TestValidateResourceFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		size        int64
		contentType string
		wantErr     bool
	}{
		{"PDF", 1024, "application/pdf", false},
		{"PNG With Params", 2048, "image/png; charset=binary", false},
		{"Exactly 10MB", MaxResourceSize, "application/zip", false},
		{"Too Large", MaxResourceSize + 1, "application/zip", true},
		{"Empty", 0, "application/pdf", true},
		{"Executable", 1024, "application/x-msdownload", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceFile(tt.size, tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFeedbackAndMessages(t *testing.T) {
	t.Parallel()
	for r := 1; r <= 5; r++ {
		assert.NoError(t, ValidateRating(r))
	}
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))

	assert.NoError(t, ValidateComment("Great session"))
	assert.Error(t, ValidateComment(strings.Repeat("c", MaxCommentLength+1)))

	assert.NoError(t, ValidateMessage("hello"))
	assert.Error(t, ValidateMessage("  "))
	assert.Error(t, ValidateMessage(strings.Repeat("m", MaxMessageLength+1)))
}

func TestValidateSessionStart(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateSessionStart(now.Add(time.Hour), now))
	assert.Error(t, ValidateSessionStart(now, now))
	assert.Error(t, ValidateSessionStart(now.Add(-time.Hour), now))
}
