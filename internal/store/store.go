// Package store is the in-memory relational store backing the marketplace.
//
// The store owns every collection. Readers always receive copies, so callers
// can never alias store internals. Subjects embedded in profiles, sessions and
// resources are value snapshots taken when they were written; later catalog
// changes do not propagate into them.
package store

import (
	"slices"
	"sync"
	"time"

	"peertutor/internal/models"

	"github.com/google/uuid"
)

// Store holds users, credentials, subjects, sessions, resources, feedback
// and messages. A single RWMutex serializes all access.
type Store struct {
	mu sync.RWMutex

	tutors      []*models.TutorProfile
	tutees      []*models.TuteeProfile
	users       *Directory
	credentials []models.UserCredential
	subjects    []models.Subject
	sessions    []*models.TutorSession
	resources   []models.Resource
	feedback    []models.Feedback
	messages    []*models.Message

	now   func() time.Time
	newID func() string
}

// New returns an empty store.
func New() *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	s.users = &Directory{mu: &s.mu}
	return s
}

// Stats reports collection sizes.
type Stats struct {
	Tutors    int `json:"tutors"`
	Tutees    int `json:"tutees"`
	Users     int `json:"users"`
	Subjects  int `json:"subjects"`
	Sessions  int `json:"sessions"`
	Resources int `json:"resources"`
	Feedback  int `json:"feedback"`
	Messages  int `json:"messages"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Tutors:    len(s.tutors),
		Tutees:    len(s.tutees),
		Users:     len(s.users.entries),
		Subjects:  len(s.subjects),
		Sessions:  len(s.sessions),
		Resources: len(s.resources),
		Feedback:  len(s.feedback),
		Messages:  len(s.messages),
	}
}

// Directory is the combined view of all users. The store returns the same
// Directory for its whole lifetime and rebuilds it in place whenever users
// are added, so a held reference always reflects current data.
type Directory struct {
	mu      *sync.RWMutex
	entries []*models.User
}

// Len returns the number of users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// List returns a copy of every user, tutors first.
func (d *Directory) List() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, 0, len(d.entries))
	for _, u := range d.entries {
		out = append(out, *u)
	}
	return out
}

// Get returns the user with the given id.
func (d *Directory) Get(id string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u := d.lookup(id)
	if u == nil {
		return models.User{}, false
	}
	return *u, true
}

func (d *Directory) lookup(id string) *models.User {
	for _, u := range d.entries {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// rebuild repopulates the view from the role collections, reusing the
// backing array. Callers hold the write lock.
func (d *Directory) rebuild(tutors []*models.TutorProfile, tutees []*models.TuteeProfile) {
	clear(d.entries)
	d.entries = d.entries[:0]
	for _, t := range tutors {
		d.entries = append(d.entries, &t.User)
	}
	for _, t := range tutees {
		d.entries = append(d.entries, &t.User)
	}
}

func cloneTutor(t *models.TutorProfile) models.TutorProfile {
	out := *t
	out.Subjects = slices.Clone(t.Subjects)
	out.Qualifications = slices.Clone(t.Qualifications)
	out.Availability = slices.Clone(t.Availability)
	out.Modes = slices.Clone(t.Modes)
	return out
}

func cloneTutee(t *models.TuteeProfile) models.TuteeProfile {
	out := *t
	out.Interests = slices.Clone(t.Interests)
	out.LearningPreferences = slices.Clone(t.LearningPreferences)
	return out
}

func (s *Store) id(current string) string {
	if current != "" {
		return current
	}
	return s.newID()
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}
