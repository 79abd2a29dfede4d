package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/campusarrival/arrival-portal/internal/config"
	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/repository"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// AdminHandler serves the management surface: staff accounts, arrival
// content, queue settings and student records.
type AdminHandler struct {
	Cfg        config.Config
	Students   *repository.StudentRepo
	Volunteers *repository.VolunteerRepo
	Content    *repository.ContentRepo
	Settings   *repository.SettingsRepo
}

func NewAdminHandler(cfg config.Config, s *repository.StudentRepo, v *repository.VolunteerRepo, c *repository.ContentRepo, set *repository.SettingsRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Students: s, Volunteers: v, Content: c, Settings: set}
}

// ----- DTOs -----

type createVolunteerReq struct {
	Username     string `json:"username" validate:"required,min=3,max=64"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"omitempty,oneof=VOLUNTEER ADMIN"`
	CanVerifyLHC bool   `json:"can_verify_lhc"`
}
type updateVolunteerReq struct {
	Role         string `json:"role" validate:"required,oneof=VOLUNTEER ADMIN"`
	CanVerifyLHC bool   `json:"can_verify_lhc"`
}
type createStudentReq struct {
	RollNo string `json:"roll_no" validate:"required,min=3,max=32"`
	Name   string `json:"name" validate:"required,min=1,max=255"`
}
type createFAQReq struct {
	Question string `json:"question" validate:"required,min=3"`
	Answer   string `json:"answer" validate:"required,min=1"`
}
type createAnnouncementReq struct {
	Message string `json:"message" validate:"required,min=1"`
}
type createLocationReq struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	MapLink string `json:"map_link" validate:"omitempty,url"`
}
type settingsReq struct {
	SkipOffset int `json:"skip_offset" validate:"required,min=1,max=100"`
}

func bindValidated(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return nil
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// ----- staff accounts -----

type volunteerView struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	CanVerifyLHC bool   `json:"can_verify_lhc"`
	IsAvailable  bool   `json:"is_available"`
}

func (h *AdminHandler) ListVolunteers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	vols, err := h.Volunteers.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]volunteerView, 0, len(vols))
	for _, v := range vols {
		out = append(out, volunteerView{
			ID: v.ID, Username: v.Username, Role: v.Role,
			CanVerifyLHC: v.CanVerifyLHC, IsAvailable: v.IsAvailable,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"volunteers": out})
}

func (h *AdminHandler) CreateVolunteer(c echo.Context) error {
	var req createVolunteerReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = model.RoleVolunteer
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Volunteers.Create(ctx, req.Username, req.Password, role, req.CanVerifyLHC, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "username": req.Username, "role": role})
}

func (h *AdminHandler) UpdateVolunteer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateVolunteerReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Volunteers.Update(ctx, id, req.Role, req.CanVerifyLHC); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "volunteer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": req.Role, "can_verify_lhc": req.CanVerifyLHC})
}

func (h *AdminHandler) DeleteVolunteer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Volunteers.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "volunteer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- students -----

func (h *AdminHandler) CreateStudent(c echo.Context) error {
	var req createStudentReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Students.Create(ctx, req.RollNo, req.Name)
	if err != nil {
		if err == repository.ErrRollNoExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "roll number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "roll_no": req.RollNo, "name": req.Name})
}

type importStudentsReq struct {
	Students []createStudentReq `json:"students" validate:"required,min=1,max=1000,dive"`
}

// ImportStudents bulk-creates student records. Rows whose roll number
// already exists are skipped and reported, not treated as failures.
func (h *AdminHandler) ImportStudents(c echo.Context) error {
	var req importStudentsReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created := 0
	skipped := make([]string, 0)
	for _, row := range req.Students {
		if _, err := h.Students.Create(ctx, row.RollNo, row.Name); err != nil {
			if err == repository.ErrRollNoExists {
				skipped = append(skipped, row.RollNo)
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed", "created": created})
		}
		created++
	}
	return c.JSON(http.StatusOK, echo.Map{"created": created, "skipped": skipped})
}

// ----- content -----

func (h *AdminHandler) CreateFAQ(c echo.Context) error {
	var req createFAQReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Content.CreateFAQ(ctx, req.Question, req.Answer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *AdminHandler) DeleteFAQ(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Content.DeleteFAQ(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "faq not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) CreateAnnouncement(c echo.Context) error {
	var req createAnnouncementReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Content.CreateAnnouncement(ctx, req.Message)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *AdminHandler) DeleteAnnouncement(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Content.DeleteAnnouncement(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) CreateLocation(c echo.Context) error {
	var req createLocationReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Content.CreateLocation(ctx, req.Name, req.MapLink)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *AdminHandler) DeleteLocation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Content.DeleteLocation(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- settings -----

func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	offset, err := h.Settings.SkipOffset(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"skip_offset": offset})
}

func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req settingsReq
	if err := bindValidated(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Settings.SetSkipOffset(ctx, req.SkipOffset); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"skip_offset": req.SkipOffset})
}
