package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/repository"
)

// CourseHandler exposes the minimal course directory the messaging core
// needs: courses exist, have a mentor, and carry a chatGroupId.
type CourseHandler struct {
	courseRepo *repository.CourseRepository
}

func NewCourseHandler(courseRepo *repository.CourseRepository) *CourseHandler {
	return &CourseHandler{courseRepo: courseRepo}
}

type createCourseRequest struct {
	CourseName string `json:"course_name"`
	CoverImage string `json:"cover_image"`
}

func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != models.RoleMentor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.CourseName = strings.TrimSpace(req.CourseName)
	if req.CourseName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course name is required"})
	}

	course := &models.Course{
		ID:         uuid.NewString(),
		CourseName: req.CourseName,
		CoverImage: req.CoverImage,
		MentorID:   userID,
	}
	if err := h.courseRepo.Create(c.Context(), course); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"course": course})
}

func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	if _, err := requireUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	course, err := h.courseRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch course"})
	}
	return c.JSON(fiber.Map{"course": course})
}

func (h *CourseHandler) ListMyCourses(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	courses, err := h.courseRepo.ListByMentor(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list courses"})
	}
	return c.JSON(fiber.Map{"courses": courses})
}
