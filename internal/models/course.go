package models

import "time"

type Course struct {
	ID          string    `json:"courseId"`
	CourseName  string    `json:"courseName"`
	CoverImage  string    `json:"coverImage"`
	MentorID    string    `json:"mentorId"`
	ChatGroupID *string   `json:"chatGroupId,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
