package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/pkg/logger"
)

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	Exists(ctx context.Context, courseID, menteeID string) (bool, error)
	Delete(ctx context.Context, enrollmentID string) error
	ListParticipantsByCourse(ctx context.Context, courseID string) ([]models.CourseParticipant, error)
}

type courseStore interface {
	GetByID(ctx context.Context, courseID string) (*models.Course, error)
	SetChatGroupID(ctx context.Context, courseID, chatGroupID string) error
}

type groupConversationStore interface {
	Create(ctx context.Context, conversationID string, convType models.ConversationType, participants []string, lastUpdate int64) error
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID string) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
}

// EnrollmentService keeps course-chat membership synchronized with course
// enrollment. The enrollment write is primary; chat binding is a best-effort
// secondary effect that never fails the enrollment.
type EnrollmentService struct {
	enrollmentRepo   enrollmentStore
	courseRepo       courseStore
	userRepo         userReader
	conversationRepo groupConversationStore
	now              func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo enrollmentStore,
	courseRepo courseStore,
	userRepo userReader,
	conversationRepo groupConversationStore,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo:   enrollmentRepo,
		courseRepo:       courseRepo,
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		now:              time.Now,
	}
}

// Enroll validates everything before writing anything: the mentee must exist,
// the course must exist, and duplicate enrollment is rejected as an error.
func (s *EnrollmentService) Enroll(
	ctx context.Context,
	courseID string,
	menteeID string,
) (*models.Enrollment, error) {
	if courseID == "" || menteeID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, menteeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenteeNotFound
		}
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrolled, err := s.enrollmentRepo.Exists(ctx, courseID, menteeID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		ID:             "enrollment_" + uuid.NewString(),
		CourseID:       courseID,
		MenteeID:       menteeID,
		EnrollmentDate: models.EpochMillis(s.now()),
		Progress:       0,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	if err := s.bindCourseChat(ctx, course, menteeID); err != nil {
		logger.Warn().
			Err(err).
			Str("course_id", courseID).
			Str("mentee_id", menteeID).
			Msg("course chat binding failed; enrollment kept")
	}

	return enrollment, nil
}

// bindCourseChat ensures the course's group conversation exists and contains
// the mentee. A course whose chatGroupId points at a missing conversation is
// healed by recreating it under the same id.
func (s *EnrollmentService) bindCourseChat(
	ctx context.Context,
	course *models.Course,
	menteeID string,
) error {
	chatGroupID := ""
	if course.ChatGroupID != nil {
		chatGroupID = *course.ChatGroupID
	}

	if chatGroupID == "" {
		chatGroupID = models.CourseConversationID(course.ID)
		if err := s.createCourseChat(ctx, chatGroupID, course, menteeID); err != nil {
			return err
		}
		return s.courseRepo.SetChatGroupID(ctx, course.ID, chatGroupID)
	}

	if _, err := s.conversationRepo.GetByID(ctx, chatGroupID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.createCourseChat(ctx, chatGroupID, course, menteeID)
		}
		return err
	}
	return s.conversationRepo.AddParticipant(ctx, chatGroupID, menteeID)
}

func (s *EnrollmentService) createCourseChat(
	ctx context.Context,
	conversationID string,
	course *models.Course,
	menteeID string,
) error {
	participants := []string{menteeID}
	if course.MentorID != "" {
		participants = append(participants, course.MentorID)
	} else {
		logger.Warn().
			Str("course_id", course.ID).
			Msg("course has no mentor; seeding chat with mentee only")
	}
	return s.conversationRepo.Create(
		ctx,
		conversationID,
		models.ConversationCourseChat,
		participants,
		models.EpochMillis(s.now()),
	)
}

// Unenroll removes the enrollment and the mentee's course-chat membership.
// Only the enrolled mentee or the course's mentor may remove it. A missing
// enrollment id is a no-op.
func (s *EnrollmentService) Unenroll(ctx context.Context, enrollmentID, actorID string) error {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if enrollment.MenteeID != actorID {
		course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
		if err != nil || course.MentorID != actorID {
			return ErrForbidden
		}
	}

	if err := s.enrollmentRepo.Delete(ctx, enrollmentID); err != nil {
		return err
	}

	course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		logger.Warn().
			Err(err).
			Str("enrollment_id", enrollmentID).
			Msg("course lookup failed during unenroll; chat membership left as-is")
		return nil
	}

	if course.ChatGroupID == nil || *course.ChatGroupID == "" {
		return nil
	}
	if err := s.conversationRepo.RemoveParticipant(ctx, *course.ChatGroupID, enrollment.MenteeID); err != nil {
		logger.Warn().
			Err(err).
			Str("conversation_id", *course.ChatGroupID).
			Str("mentee_id", enrollment.MenteeID).
			Msg("participant removal failed; enrollment already removed")
	}
	return nil
}

// ListParticipants returns the course's enrolled mentees with their directory
// identities.
func (s *EnrollmentService) ListParticipants(
	ctx context.Context,
	courseID string,
) ([]models.CourseParticipant, error) {
	return s.enrollmentRepo.ListParticipantsByCourse(ctx, courseID)
}
