// Package seed loads the demo catalog and generates fake marketplace data
// for development, the CLI and tests.
package seed

import (
	_ "embed"
	"fmt"
	"net/url"

	"peertutor/internal/models"
	"peertutor/internal/store"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type TutorFixture struct {
	ID             string                `yaml:"id"`
	Email          string                `yaml:"email"`
	Name           string                `yaml:"name"`
	Bio            string                `yaml:"bio"`
	HourlyRate     float64               `yaml:"hourly_rate"`
	Qualifications []string              `yaml:"qualifications"`
	Modes          []models.SessionMode  `yaml:"modes"`
	Availability   []AvailabilityFixture `yaml:"availability"`
}

type AvailabilityFixture struct {
	Day       string `yaml:"day"`
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
}

type TuteeFixture struct {
	ID                  string   `yaml:"id"`
	Email               string   `yaml:"email"`
	Name                string   `yaml:"name"`
	Interests           []string `yaml:"interests"`
	LearningPreferences []string `yaml:"learning_preferences"`
}

type SubjectFixture struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Level       string  `yaml:"level"`
	TutorID     string  `yaml:"tutor_id"`
	HourlyRate  float64 `yaml:"hourly_rate"`
	Description string  `yaml:"description"`
}

type ResourceFixture struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	UploadedBy  string `yaml:"uploaded_by"`
	SubjectID   string `yaml:"subject_id"`
	FileName    string `yaml:"file_name"`
	FileType    string `yaml:"file_type"`
	Size        int64  `yaml:"size"`
}

// Fixtures is the decoded demo catalog.
type Fixtures struct {
	Password  string            `yaml:"password"`
	Subjects  []SubjectFixture  `yaml:"subjects"`
	Tutors    []TutorFixture    `yaml:"tutors"`
	Tutees    []TuteeFixture    `yaml:"tutees"`
	Resources []ResourceFixture `yaml:"resources"`
}

// LoadFixtures decodes the embedded catalog.
func LoadFixtures() (*Fixtures, error) {
	return ParseFixtures(fixturesYAML)
}

// ParseFixtures decodes a catalog document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// Apply adds the catalog to s: tutors first, then subjects (which also land
// on their tutor's profile), tutees with their interests, credentials and
// resources. hashCost is the bcrypt cost for the shared fixture password.
func Apply(s *store.Store, f *Fixtures, hashCost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), hashCost)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	for _, t := range f.Tutors {
		avail := make([]models.Availability, 0, len(t.Availability))
		for _, a := range t.Availability {
			avail = append(avail, models.Availability{Day: a.Day, StartTime: a.StartTime, EndTime: a.EndTime})
		}
		profile := models.TutorProfile{
			User:           models.User{ID: t.ID, Email: t.Email, Name: t.Name, Bio: t.Bio, Role: models.RoleTutor},
			Subjects:       []models.Subject{},
			Qualifications: t.Qualifications,
			HourlyRate:     t.HourlyRate,
			Availability:   avail,
			Modes:          t.Modes,
		}
		if _, err := s.AddUser(profile); err != nil {
			return fmt.Errorf("seed tutor %s: %w", t.ID, err)
		}
	}

	for _, sub := range f.Subjects {
		s.AddSubject(models.Subject{
			ID:          sub.ID,
			Name:        sub.Name,
			Level:       sub.Level,
			TutorID:     sub.TutorID,
			HourlyRate:  sub.HourlyRate,
			Description: sub.Description,
		})
	}

	for _, t := range f.Tutees {
		interests := make([]models.Subject, 0, len(t.Interests))
		for _, id := range t.Interests {
			sub, ok := s.GetSubject(id)
			if !ok {
				return fmt.Errorf("seed tutee %s: unknown subject %s", t.ID, id)
			}
			interests = append(interests, sub)
		}
		profile := models.TuteeProfile{
			User:                models.User{ID: t.ID, Email: t.Email, Name: t.Name, Role: models.RoleTutee},
			Interests:           interests,
			LearningPreferences: t.LearningPreferences,
		}
		if _, err := s.AddUser(profile); err != nil {
			return fmt.Errorf("seed tutee %s: %w", t.ID, err)
		}
	}

	for _, u := range s.AllUsers().List() {
		s.AddUserCredentials(u.Email, string(hash), u.ID)
	}

	for _, r := range f.Resources {
		sub, ok := s.GetSubject(r.SubjectID)
		if !ok {
			return fmt.Errorf("seed resource %s: unknown subject %s", r.ID, r.SubjectID)
		}
		s.AddResource(models.Resource{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			FileURL:     "/uploads/" + r.ID + "/" + url.PathEscape(r.FileName),
			UploadedBy:  r.UploadedBy,
			Subject:     sub,
			FileType:    r.FileType,
			Size:        r.Size,
		})
	}
	return nil
}

// Seed applies the embedded catalog with the default bcrypt cost.
func Seed(s *store.Store) error {
	f, err := LoadFixtures()
	if err != nil {
		return err
	}
	return Apply(s, f, bcrypt.DefaultCost)
}
