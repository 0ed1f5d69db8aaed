package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
)

type stubEnrollmentApp struct {
	enrollment   *models.Enrollment
	enrollErr    error
	unenrollErr  error
	participants []models.CourseParticipant
	lastCourseID string
	lastMenteeID string
	lastActorID  string
}

func (s *stubEnrollmentApp) Enroll(_ context.Context, courseID, menteeID string) (*models.Enrollment, error) {
	s.lastCourseID = courseID
	s.lastMenteeID = menteeID
	return s.enrollment, s.enrollErr
}

func (s *stubEnrollmentApp) Unenroll(_ context.Context, _, actorID string) error {
	s.lastActorID = actorID
	return s.unenrollErr
}

func (s *stubEnrollmentApp) ListParticipants(_ context.Context, courseID string) ([]models.CourseParticipant, error) {
	s.lastCourseID = courseID
	return s.participants, nil
}

func newEnrollmentTestApp(service *stubEnrollmentApp) *fiber.App {
	handler := NewEnrollmentHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "mentee_1")
		c.Locals("role", models.RoleMentee)
		return c.Next()
	})
	app.Post("/api/v1/courses/:id/enroll", handler.Enroll)
	app.Delete("/api/v1/enrollments/:id", handler.Unenroll)
	app.Get("/api/v1/courses/:id/participants", handler.ListParticipants)
	return app
}

func TestEnrollActorBecomesMentee(t *testing.T) {
	service := &stubEnrollmentApp{
		enrollment: &models.Enrollment{ID: "enrollment_1", CourseID: "course_1", MenteeID: "mentee_1"},
	}
	app := newEnrollmentTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/course_1/enroll", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCourseID != "course_1" || service.lastMenteeID != "mentee_1" {
		t.Fatalf("unexpected forwarded ids: %q %q", service.lastCourseID, service.lastMenteeID)
	}
}

func TestEnrollErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"missing mentee", services.ErrMenteeNotFound, http.StatusNotFound, "Mentee ID does not exist"},
		{"missing course", services.ErrCourseNotFound, http.StatusNotFound, "Course does not exist"},
		{"duplicate", services.ErrAlreadyEnrolled, http.StatusConflict, "Mentee already enrolled in this course"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newEnrollmentTestApp(&stubEnrollmentApp{enrollErr: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/course_1/enroll", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}

			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if body.Error != tc.wantError {
				t.Fatalf("expected reason %q, got %q", tc.wantError, body.Error)
			}
		})
	}
}

func TestUnenrollReturnsNoContent(t *testing.T) {
	service := &stubEnrollmentApp{}
	app := newEnrollmentTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/enrollments/enrollment_1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.lastActorID != "mentee_1" {
		t.Fatalf("expected the authenticated user as actor, got %q", service.lastActorID)
	}
}

func TestUnenrollForbiddenForOtherActor(t *testing.T) {
	app := newEnrollmentTestApp(&stubEnrollmentApp{unenrollErr: services.ErrForbidden})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/enrollments/enrollment_1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestListParticipantsReturnsRoster(t *testing.T) {
	service := &stubEnrollmentApp{
		participants: []models.CourseParticipant{
			{EnrollmentID: "enrollment_1", UserID: "mentee_1", Username: "An", Progress: 40},
		},
	}
	app := newEnrollmentTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/course_1/participants", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Participants []models.CourseParticipant `json:"participants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Participants) != 1 || body.Participants[0].Username != "An" {
		t.Fatalf("unexpected roster: %+v", body.Participants)
	}
}
