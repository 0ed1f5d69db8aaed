package repository

import (
	"context"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO enrollments (id, course_id, mentee_id, enrollment_date, progress)
		VALUES ($1, $2, $3, $4, $5)
	`, enrollment.ID, enrollment.CourseID, enrollment.MenteeID, enrollment.EnrollmentDate, enrollment.Progress)
	return err
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	query := `
		SELECT id, course_id, mentee_id, enrollment_date, progress
		FROM enrollments
		WHERE id = $1
	`
	var enrollment models.Enrollment
	err := r.db.QueryRow(ctx, query, enrollmentID).Scan(
		&enrollment.ID, &enrollment.CourseID, &enrollment.MenteeID,
		&enrollment.EnrollmentDate, &enrollment.Progress,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, courseID, menteeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE course_id = $1 AND mentee_id = $2
		)
	`, courseID, menteeID).Scan(&exists)
	return exists, err
}

func (r *EnrollmentRepository) Delete(ctx context.Context, enrollmentID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM enrollments
		WHERE id = $1
	`, enrollmentID)
	return err
}

// ListParticipantsByCourse joins enrollments with the user directory for the
// participant list view.
func (r *EnrollmentRepository) ListParticipantsByCourse(
	ctx context.Context,
	courseID string,
) ([]models.CourseParticipant, error) {
	query := `
		SELECT e.id, u.id, u.username, u.avatar_url, e.progress
		FROM enrollments e
		JOIN users u ON u.id = e.mentee_id
		WHERE e.course_id = $1
		ORDER BY e.enrollment_date ASC, e.id ASC
	`
	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.CourseParticipant, 0)
	for rows.Next() {
		var participant models.CourseParticipant
		if err := rows.Scan(
			&participant.EnrollmentID,
			&participant.UserID,
			&participant.Username,
			&participant.AvatarURL,
			&participant.Progress,
		); err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}
