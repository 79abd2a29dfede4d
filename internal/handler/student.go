package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campusarrival/arrival-portal/internal/middleware"
	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/repository"
)

// StudentHandler serves the student-facing arrival views: checklist
// progress and the student's own queue token.
type StudentHandler struct {
	Students *repository.StudentRepo
	Tokens   *repository.ApprovalTokenRepo
}

func NewStudentHandler(s *repository.StudentRepo, t *repository.ApprovalTokenRepo) *StudentHandler {
	return &StudentHandler{Students: s, Tokens: t}
}

type stepPart struct {
	Step int    `json:"step"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type profileResp struct {
	RollNo   string     `json:"roll_no"`
	Name     string     `json:"name"`
	FeesPaid bool       `json:"fees_paid"`
	Steps    []stepPart `json:"steps"`
	Done     int        `json:"steps_done"`
	Progress float64    `json:"progress"`
	Eligible bool       `json:"token_eligible"`
}

// Profile returns the authenticated student's checklist state and
// progress fraction.
func (h *StudentHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Students.GetByRollNo(ctx, middleware.Subject(c))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	flags := []bool{s.HostelMessStatus, s.InsuranceStatus, s.LHCDocsStatus, s.FinalApprovalStatus}
	steps := make([]stepPart, model.TotalSteps)
	for i, name := range model.StepNames {
		steps[i] = stepPart{Step: i + 1, Name: name, Done: flags[i]}
	}
	return c.JSON(http.StatusOK, profileResp{
		RollNo:   s.IATRollNo,
		Name:     s.StudentName,
		FeesPaid: s.FeesPaid,
		Steps:    steps,
		Done:     s.Progress(),
		Progress: float64(s.Progress()) / model.TotalSteps,
		Eligible: s.EligibleForToken(),
	})
}

// Token returns the student's live queue token, or assigned=false when
// none has been issued.
func (h *StudentHandler) Token(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Tokens.ByStudent(ctx, middleware.Subject(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if tok == nil {
		return c.JSON(http.StatusOK, echo.Map{"assigned": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"assigned":      true,
		"token_number":  tok.TokenNumber,
		"is_processing": tok.IsProcessing,
		"created_at":    tok.CreatedAt.Format(timeLayout),
	})
}

// ContentHandler serves the read-only arrival content tabs.
type ContentHandler struct {
	Content *repository.ContentRepo
}

func NewContentHandler(r *repository.ContentRepo) *ContentHandler {
	return &ContentHandler{Content: r}
}

func (h *ContentHandler) FAQs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Content.ListFAQs(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"faqs": items})
}

func (h *ContentHandler) Announcements(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Content.ListAnnouncements(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": items})
}

func (h *ContentHandler) Locations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Content.ListLocations(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"locations": items})
}
