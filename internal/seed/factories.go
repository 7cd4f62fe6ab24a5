package seed

import (
	"fmt"
	"strings"

	"peertutor/internal/models"
	"peertutor/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	weekdays   = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	levels     = []string{models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced}
	topicNames = []string{
		"Python", "Java", "Calculus", "Statistics", "Physics", "Organic Chemistry",
		"Biology", "Economics", "English Literature", "Spanish", "Machine Learning", "Databases",
	}
	preferences = []string{"visual", "auditory", "reading", "hands-on"}
)

// Factory generates fake tutors and tutees. A fixed seed yields the same
// people every run.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a Factory seeded with seed. Zero picks a random seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Tutor builds an unsaved tutor with one to three subjects and one to
// three availability windows. Subject IDs are left for the store to assign.
func (f *Factory) Tutor() models.TutorProfile {
	first, last := f.faker.FirstName(), f.faker.LastName()
	rate := float64(f.faker.Number(15, 60))

	subjects := make([]models.Subject, 0, 3)
	for i, n := 0, f.faker.Number(1, 3); i < n; i++ {
		subjects = append(subjects, models.Subject{
			Name:       f.faker.RandomString(topicNames),
			Level:      f.faker.RandomString(levels),
			HourlyRate: rate + float64(f.faker.Number(0, 15)),
		})
	}

	avail := make([]models.Availability, 0, 3)
	for i, n := 0, f.faker.Number(1, 3); i < n; i++ {
		start := f.faker.Number(8, 18)
		avail = append(avail, models.Availability{
			Day:       f.faker.RandomString(weekdays),
			StartTime: fmt.Sprintf("%02d:00", start),
			EndTime:   fmt.Sprintf("%02d:00", start+f.faker.Number(1, 4)),
		})
	}

	var modes []models.SessionMode
	switch f.faker.Number(0, 2) {
	case 0:
		modes = []models.SessionMode{models.ModeOnline}
	case 1:
		modes = []models.SessionMode{models.ModeInPerson}
	}

	return models.TutorProfile{
		User: models.User{
			Email: strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, f.faker.LetterN(4))),
			Name:  first + " " + last,
			Bio:   f.faker.Sentence(12),
			Role:  models.RoleTutor,
		},
		Subjects:       subjects,
		Qualifications: []string{f.faker.JobTitle()},
		HourlyRate:     rate,
		Availability:   avail,
		Modes:          modes,
	}
}

// Tutee builds an unsaved tutee without interests.
func (f *Factory) Tutee() models.TuteeProfile {
	first, last := f.faker.FirstName(), f.faker.LastName()
	return models.TuteeProfile{
		User: models.User{
			Email: strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, f.faker.LetterN(4))),
			Name:  first + " " + last,
			Role:  models.RoleTutee,
		},
		Interests:           []models.Subject{},
		LearningPreferences: []string{f.faker.RandomString(preferences)},
	}
}

// Populate adds generated users to s. Tutor subjects go through the
// catalog so they are searchable and bookable.
func (f *Factory) Populate(s *store.Store, tutors, tutees int) error {
	for i := 0; i < tutors; i++ {
		t := f.Tutor()
		subjects := t.Subjects
		t.Subjects = []models.Subject{}
		user, err := s.AddUser(t)
		if err != nil {
			return fmt.Errorf("add fake tutor: %w", err)
		}
		for _, sub := range subjects {
			sub.TutorID = user.ID
			s.AddSubject(sub)
		}
	}
	for i := 0; i < tutees; i++ {
		if _, err := s.AddUser(f.Tutee()); err != nil {
			return fmt.Errorf("add fake tutee: %w", err)
		}
	}
	return nil
}
