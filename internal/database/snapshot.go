package database

import (
	"context"
	"errors"
	"fmt"

	"peertutor/internal/models"
	"peertutor/internal/observability"
	"peertutor/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// SnapshotRepository writes whole-store datasets to the database and reads
// them back.
type SnapshotRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewSnapshotRepository creates a repository on db. The tables must exist.
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{
		db:      db,
		log:     observability.NewRepoLogger("snapshot"),
		metrics: observability.NewDatabaseMetrics(),
	}
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation
// (SQLSTATE 23505) or GORM's translated duplicate key error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Save replaces every snapshot table with the contents of d in one
// transaction.
func (r *SnapshotRepository) Save(ctx context.Context, d store.Dataset) error {
	defer r.metrics.TrackQuery("save", "snapshot")()
	span, ctx := observability.NewSpan(ctx, "snapshot.save",
		attribute.Int("tutors", len(d.Tutors)), attribute.Int("sessions", len(d.Sessions)))
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range snapshotTables() {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		for _, rows := range datasetRecords(d) {
			if rows == nil {
				continue
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "save")
		if IsUniqueViolation(err) {
			return models.NewConflictError("snapshot contains duplicate keys")
		}
		return fmt.Errorf("save snapshot: %w", err)
	}

	r.log.LogWrite(ctx, map[string]any{
		"tutors":   len(d.Tutors),
		"tutees":   len(d.Tutees),
		"subjects": len(d.Subjects),
		"sessions": len(d.Sessions),
	})
	return nil
}

// datasetRecords converts d into one slice of records per table. Empty
// collections yield nil.
func datasetRecords(d store.Dataset) []any {
	out := make([]any, 0, 8)

	if len(d.Tutors) > 0 {
		rows := make([]tutorRecord, len(d.Tutors))
		for i, t := range d.Tutors {
			rows[i] = tutorRecord{ID: t.ID, Seq: i, Email: t.Email, Profile: t}
		}
		out = append(out, &rows)
	}
	if len(d.Tutees) > 0 {
		rows := make([]tuteeRecord, len(d.Tutees))
		for i, t := range d.Tutees {
			rows[i] = tuteeRecord{ID: t.ID, Seq: i, Email: t.Email, Profile: t}
		}
		out = append(out, &rows)
	}
	if len(d.Credentials) > 0 {
		rows := make([]credentialRecord, len(d.Credentials))
		for i, c := range d.Credentials {
			rows[i] = credentialRecord{Email: c.Email, Seq: i, UserID: c.UserID, PasswordHash: c.Password}
		}
		out = append(out, &rows)
	}
	if len(d.Subjects) > 0 {
		rows := make([]subjectRecord, len(d.Subjects))
		for i, s := range d.Subjects {
			rows[i] = subjectRecord{ID: s.ID, Seq: i, TutorID: s.TutorID, Subject: s}
		}
		out = append(out, &rows)
	}
	if len(d.Sessions) > 0 {
		rows := make([]sessionRecord, len(d.Sessions))
		for i, s := range d.Sessions {
			rows[i] = sessionRecord{
				ID: s.ID, Seq: i, TutorID: s.TutorID, TuteeID: s.TuteeID,
				Status: string(s.Status), DateTime: s.DateTime, Session: s,
			}
		}
		out = append(out, &rows)
	}
	if len(d.Resources) > 0 {
		rows := make([]resourceRecord, len(d.Resources))
		for i, res := range d.Resources {
			rows[i] = resourceRecord{ID: res.ID, Seq: i, Resource: res}
		}
		out = append(out, &rows)
	}
	if len(d.Feedback) > 0 {
		rows := make([]feedbackRecord, len(d.Feedback))
		for i, f := range d.Feedback {
			rows[i] = feedbackRecord{ID: f.ID, Seq: i, Feedback: f}
		}
		out = append(out, &rows)
	}
	if len(d.Messages) > 0 {
		rows := make([]messageRecord, len(d.Messages))
		for i, m := range d.Messages {
			rows[i] = messageRecord{ID: m.ID, Seq: i, Message: m}
		}
		out = append(out, &rows)
	}
	return out
}

// Load reads the last saved dataset. An empty database yields an empty
// dataset.
func (r *SnapshotRepository) Load(ctx context.Context) (store.Dataset, error) {
	defer r.metrics.TrackQuery("load", "snapshot")()
	span, ctx := observability.NewSpan(ctx, "snapshot.load")
	defer span.End()

	var (
		d           store.Dataset
		tutors      []tutorRecord
		tutees      []tuteeRecord
		credentials []credentialRecord
		subjects    []subjectRecord
		sessions    []sessionRecord
		resources   []resourceRecord
		feedback    []feedbackRecord
		messages    []messageRecord
	)

	db := r.db.WithContext(ctx).Order("seq")
	for _, dest := range []any{&tutors, &tutees, &credentials, &subjects, &sessions, &resources, &feedback, &messages} {
		if err := db.Find(dest).Error; err != nil {
			span.SetError(err)
			r.log.LogError(ctx, err, "load")
			return store.Dataset{}, fmt.Errorf("load snapshot: %w", err)
		}
	}

	for _, rec := range tutors {
		d.Tutors = append(d.Tutors, rec.Profile)
	}
	for _, rec := range tutees {
		d.Tutees = append(d.Tutees, rec.Profile)
	}
	for _, rec := range credentials {
		d.Credentials = append(d.Credentials, models.UserCredential{
			Email: rec.Email, Password: rec.PasswordHash, UserID: rec.UserID,
		})
	}
	for _, rec := range subjects {
		d.Subjects = append(d.Subjects, rec.Subject)
	}
	for _, rec := range sessions {
		d.Sessions = append(d.Sessions, rec.Session)
	}
	for _, rec := range resources {
		d.Resources = append(d.Resources, rec.Resource)
	}
	for _, rec := range feedback {
		d.Feedback = append(d.Feedback, rec.Feedback)
	}
	for _, rec := range messages {
		d.Messages = append(d.Messages, rec.Message)
	}

	r.log.LogRead(ctx, map[string]any{
		"tutors":   len(d.Tutors),
		"tutees":   len(d.Tutees),
		"sessions": len(d.Sessions),
	})
	return d, nil
}
