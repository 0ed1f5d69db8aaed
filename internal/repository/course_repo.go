package repository

import (
	"context"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type CourseRepository struct {
	db DBTX
}

func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (id, course_name, cover_image, mentor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		course.ID, course.CourseName, course.CoverImage, course.MentorID,
	).Scan(&course.CreatedAt)
}

func (r *CourseRepository) GetByID(ctx context.Context, courseID string) (*models.Course, error) {
	query := `
		SELECT id, course_name, cover_image, mentor_id, chat_group_id, created_at
		FROM courses
		WHERE id = $1
	`
	var course models.Course
	err := r.db.QueryRow(ctx, query, courseID).Scan(
		&course.ID, &course.CourseName, &course.CoverImage,
		&course.MentorID, &course.ChatGroupID, &course.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByChatGroupID is the reverse lookup from a course-chat conversation to
// its course.
func (r *CourseRepository) GetByChatGroupID(ctx context.Context, conversationID string) (*models.Course, error) {
	query := `
		SELECT id, course_name, cover_image, mentor_id, chat_group_id, created_at
		FROM courses
		WHERE chat_group_id = $1
	`
	var course models.Course
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&course.ID, &course.CourseName, &course.CoverImage,
		&course.MentorID, &course.ChatGroupID, &course.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) SetChatGroupID(ctx context.Context, courseID string, chatGroupID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courses
		SET chat_group_id = $2
		WHERE id = $1
	`, courseID, chatGroupID)
	return err
}

func (r *CourseRepository) ListByMentor(ctx context.Context, mentorID string) ([]models.Course, error) {
	query := `
		SELECT id, course_name, cover_image, mentor_id, chat_group_id, created_at
		FROM courses
		WHERE mentor_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID, &course.CourseName, &course.CoverImage,
			&course.MentorID, &course.ChatGroupID, &course.CreatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}
