package seed

import (
	"testing"

	"peertutor/internal/models"
	"peertutor/internal/search"
	"peertutor/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures()
	require.NoError(t, err)

	assert.NotEmpty(t, f.Password)
	assert.Len(t, f.Tutors, 4)
	assert.Len(t, f.Tutees, 2)
	assert.NotEmpty(t, f.Subjects)

	tutorIDs := make(map[string]bool)
	for _, tu := range f.Tutors {
		tutorIDs[tu.ID] = true
	}
	for _, sub := range f.Subjects {
		assert.True(t, tutorIDs[sub.TutorID], "subject %s references unknown tutor %s", sub.ID, sub.TutorID)
	}
}

func TestParseFixtures_Invalid(t *testing.T) {
	_, err := ParseFixtures([]byte("tutors: [unterminated"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	f, err := LoadFixtures()
	require.NoError(t, err)

	s := store.New()
	require.NoError(t, Apply(s, f, bcrypt.MinCost))

	stats := s.Stats()
	assert.Equal(t, len(f.Tutors), stats.Tutors)
	assert.Equal(t, len(f.Tutees), stats.Tutees)
	assert.Equal(t, len(f.Subjects), stats.Subjects)
	assert.Equal(t, len(f.Resources), stats.Resources)

	ada, ok := s.GetTutor("tutor-ada")
	require.True(t, ok)
	assert.Len(t, ada.Subjects, 2)
	assert.Equal(t, []models.SessionMode{models.ModeOnline}, ada.Modes)

	cred, ok := s.FindUserCredentials("ada@peertutor.dev")
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(f.Password)))

	sam, ok := s.GetTutee("tutee-sam")
	require.True(t, ok)
	require.Len(t, sam.Interests, 2)
	assert.Equal(t, "Python", sam.Interests[0].Name)

	res := s.GetTutorResources("tutor-ada")
	require.Len(t, res, 1)
	assert.Equal(t, "/uploads/res-python-cheatsheet/python-basics.pdf", res[0].FileURL)
	assert.Equal(t, "sub-python-beg", res[0].Subject.ID)

	found := s.SearchTutors(models.SearchQuery{Subject: "Python", Level: models.LevelAdvanced}, search.Options{})
	require.Len(t, found, 1)
	assert.Equal(t, "tutor-ada", found[0].ID)
}

func TestApply_UnknownInterest(t *testing.T) {
	f := &Fixtures{
		Password: "pw",
		Tutees:   []TuteeFixture{{ID: "u1", Email: "u1@x.dev", Name: "U", Interests: []string{"nope"}}},
	}
	err := Apply(store.New(), f, bcrypt.MinCost)
	assert.ErrorContains(t, err, "unknown subject nope")
}

func TestApply_Twice(t *testing.T) {
	f, err := LoadFixtures()
	require.NoError(t, err)

	s := store.New()
	require.NoError(t, Apply(s, f, bcrypt.MinCost))
	assert.Error(t, Apply(s, f, bcrypt.MinCost))
}

func TestFactory_Deterministic(t *testing.T) {
	a := NewFactory(42).Tutor()
	b := NewFactory(42).Tutor()
	assert.Equal(t, a, b)

	assert.Equal(t, models.RoleTutor, a.Role)
	assert.NotEmpty(t, a.Subjects)
	assert.NotEmpty(t, a.Availability)
	for _, av := range a.Availability {
		assert.Less(t, av.StartTime, av.EndTime)
	}
}

func TestFactory_Populate(t *testing.T) {
	s := store.New()
	require.NoError(t, NewFactory(7).Populate(s, 5, 3))

	stats := s.Stats()
	assert.Equal(t, 5, stats.Tutors)
	assert.Equal(t, 3, stats.Tutees)
	assert.Equal(t, 8, stats.Users)
	assert.GreaterOrEqual(t, stats.Subjects, 5)

	for _, tu := range s.ListTutors() {
		for _, sub := range tu.Subjects {
			assert.Equal(t, tu.ID, sub.TutorID)
			assert.NotEmpty(t, sub.ID)
		}
	}
}
