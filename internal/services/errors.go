package services

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// Enrollment validation errors carry the exact reasons shown to the user.
	ErrMenteeNotFound  = errors.New("mentee ID does not exist")
	ErrAlreadyEnrolled = errors.New("mentee already enrolled in this course")
	ErrCourseNotFound  = errors.New("course does not exist")
)
