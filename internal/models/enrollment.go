package models

type Enrollment struct {
	ID             string `json:"enrollmentId"`
	CourseID       string `json:"courseId"`
	MenteeID       string `json:"menteeId"`
	EnrollmentDate int64  `json:"enrollmentDate"`
	Progress       int    `json:"progress"`
}

// CourseParticipant is an enrollment joined with the mentee's directory
// record, as shown on the participant list.
type CourseParticipant struct {
	EnrollmentID string `json:"enrollmentId"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatarUrl"`
	Progress     int    `json:"progress"`
}
