package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
)

type enrollmentApplicationService interface {
	Enroll(ctx context.Context, courseID, menteeID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, enrollmentID, actorID string) error
	ListParticipants(ctx context.Context, courseID string) ([]models.CourseParticipant, error)
}

type EnrollmentHandler struct {
	service enrollmentApplicationService
}

func NewEnrollmentHandler(service enrollmentApplicationService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	enrollment, err := h.service.Enroll(c.Context(), c.Params("id"), userID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) Unenroll(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.Unenroll(c.Context(), c.Params("id"), userID); err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EnrollmentHandler) ListParticipants(c *fiber.Ctx) error {
	if _, err := requireUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	participants, err := h.service.ListParticipants(c.Context(), c.Params("id"))
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.JSON(fiber.Map{"participants": participants})
}

// Enrollment failures carry the specific validation reason, not a generic
// message.
func mapEnrollmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMenteeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentee ID does not exist"})
	case errors.Is(err, services.ErrCourseNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course does not exist"})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mentee already enrolled in this course"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process enrollment"})
	}
}
