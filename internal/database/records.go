package database

import (
	"time"

	"peertutor/internal/models"
)

// Every record carries Seq so a load restores the store's insertion order.

type tutorRecord struct {
	ID      string              `gorm:"primaryKey"`
	Seq     int                 `gorm:"index"`
	Email   string              `gorm:"index"`
	Profile models.TutorProfile `gorm:"serializer:json;type:text"`
}

func (tutorRecord) TableName() string { return "tutors" }

type tuteeRecord struct {
	ID      string              `gorm:"primaryKey"`
	Seq     int                 `gorm:"index"`
	Email   string              `gorm:"index"`
	Profile models.TuteeProfile `gorm:"serializer:json;type:text"`
}

func (tuteeRecord) TableName() string { return "tutees" }

type credentialRecord struct {
	Email        string `gorm:"primaryKey"`
	Seq          int    `gorm:"index"`
	UserID       string
	PasswordHash string
}

func (credentialRecord) TableName() string { return "credentials" }

type subjectRecord struct {
	ID      string         `gorm:"primaryKey"`
	Seq     int            `gorm:"index"`
	TutorID string         `gorm:"index"`
	Subject models.Subject `gorm:"serializer:json;type:text"`
}

func (subjectRecord) TableName() string { return "subjects" }

type sessionRecord struct {
	ID       string `gorm:"primaryKey"`
	Seq      int    `gorm:"index"`
	TutorID  string `gorm:"index"`
	TuteeID  string `gorm:"index"`
	Status   string
	DateTime time.Time
	Session  models.TutorSession `gorm:"serializer:json;type:text"`
}

func (sessionRecord) TableName() string { return "sessions" }

type resourceRecord struct {
	ID       string          `gorm:"primaryKey"`
	Seq      int             `gorm:"index"`
	Resource models.Resource `gorm:"serializer:json;type:text"`
}

func (resourceRecord) TableName() string { return "resources" }

type feedbackRecord struct {
	ID       string          `gorm:"primaryKey"`
	Seq      int             `gorm:"index"`
	Feedback models.Feedback `gorm:"serializer:json;type:text"`
}

func (feedbackRecord) TableName() string { return "feedback" }

type messageRecord struct {
	ID      string         `gorm:"primaryKey"`
	Seq     int            `gorm:"index"`
	Message models.Message `gorm:"serializer:json;type:text"`
}

func (messageRecord) TableName() string { return "messages" }

func snapshotTables() []any {
	return []any{
		&tutorRecord{},
		&tuteeRecord{},
		&credentialRecord{},
		&subjectRecord{},
		&sessionRecord{},
		&resourceRecord{},
		&feedbackRecord{},
		&messageRecord{},
	}
}
