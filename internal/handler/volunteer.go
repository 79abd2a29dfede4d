package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusarrival/arrival-portal/internal/middleware"
	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/monitoring"
	"github.com/campusarrival/arrival-portal/internal/queue"
	"github.com/campusarrival/arrival-portal/internal/repository"
	queue_publisher "github.com/campusarrival/arrival-portal/internal/service"
	"github.com/campusarrival/arrival-portal/internal/tokenqueue"
	"github.com/campusarrival/arrival-portal/internal/ws"
)

// VolunteerHandler serves the verification queue dashboard: queue
// reads, token issuance, claim, complete, skip, availability and the
// checklist step updates.
type VolunteerHandler struct {
	Manager    *tokenqueue.Manager
	Students   *repository.StudentRepo
	Volunteers *repository.VolunteerRepo
	Hub        *ws.Hub
}

func NewVolunteerHandler(m *tokenqueue.Manager, s *repository.StudentRepo, v *repository.VolunteerRepo, hub *ws.Hub) *VolunteerHandler {
	return &VolunteerHandler{Manager: m, Students: s, Volunteers: v, Hub: hub}
}

// ----- DTOs -----

type issueReq struct {
	RollNo string `json:"roll_no"`
}
type completeReq struct {
	TokenID uint64 `json:"token_id"`
}
type availabilityReq struct {
	Available bool `json:"available"`
}
type stepReq struct {
	Step  string `json:"step"`
	Value bool   `json:"value"`
}

type tokenView struct {
	ID            uint64  `json:"id"`
	TokenNumber   int     `json:"token_number"`
	StudentRollNo string  `json:"student_roll_no"`
	VolunteerID   *uint64 `json:"volunteer_id,omitempty"`
	IsProcessing  bool    `json:"is_processing"`
}

type queueEntryView struct {
	Token       tokenView `json:"token"`
	StudentName string    `json:"student_name"`
	Flagged     bool      `json:"flagged"`
}

func viewToken(t *model.ApprovalToken) tokenView {
	return tokenView{
		ID:            t.ID,
		TokenNumber:   t.TokenNumber,
		StudentRollNo: t.StudentRollNo,
		VolunteerID:   t.VolunteerID,
		IsProcessing:  t.IsProcessing,
	}
}

// notify fans a queue mutation out to websocket clients and the
// broker. Both paths are best effort.
func (h *VolunteerHandler) notify(op string, t *model.ApprovalToken) {
	ev := queue.QueueChangedEvent{
		Op:            op,
		TokenID:       t.ID,
		TokenNumber:   t.TokenNumber,
		StudentRollNo: t.StudentRollNo,
		At:            time.Now().UTC().Format(timeLayout),
	}
	if t.VolunteerID != nil {
		ev.VolunteerID = *t.VolunteerID
	}
	h.Hub.Broadcast(ev)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishQueueChanged(ctx, ev)
	}()
}

// Queue returns the active verification queue, ordered by token
// number, with the owning student joined in.
func (h *VolunteerHandler) Queue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Manager.FetchQueue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue read failed"})
	}

	depth := 0
	out := make([]queueEntryView, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Claimable() {
			depth++
		}
		out = append(out, queueEntryView{
			Token:       viewToken(&e.Token),
			StudentName: e.Student.StudentName,
			Flagged:     e.Student.Flagged,
		})
	}
	monitoring.QueueDepth.Set(float64(depth))
	return c.JSON(http.StatusOK, echo.Map{"queue": out})
}

// Issue creates the next token for an eligible student. When the
// calling volunteer can verify and is free, the token comes back
// already claimed by them.
func (h *VolunteerHandler) Issue(c echo.Context) error {
	var req issueReq
	if err := c.Bind(&req); err != nil || req.RollNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "roll_no required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Manager.IssueToken(ctx, req.RollNo, middleware.VolunteerID(c))
	monitoring.ObserveOp(queue.OpIssued, err)
	if err != nil {
		switch {
		case errors.Is(err, tokenqueue.ErrPrerequisiteNotMet):
			return c.JSON(http.StatusConflict, echo.Map{"error": "prerequisite steps incomplete"})
		case errors.Is(err, tokenqueue.ErrAlreadyAssigned):
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already has a token"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue failed"})
	}
	h.notify(queue.OpIssued, tok)
	return c.JSON(http.StatusCreated, viewToken(tok))
}

// Claim assigns the lowest unclaimed token to the calling volunteer.
func (h *VolunteerHandler) Claim(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Manager.AutoAssignNext(ctx, middleware.VolunteerID(c))
	if err != nil {
		monitoring.ObserveOp(queue.OpClaimed, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "claim failed"})
	}
	if tok == nil {
		return c.JSON(http.StatusOK, echo.Map{"assigned": false})
	}
	monitoring.ObserveOp(queue.OpClaimed, nil)
	h.notify(queue.OpClaimed, tok)
	return c.JSON(http.StatusOK, echo.Map{"assigned": true, "token": viewToken(tok)})
}

// Complete marks a token's student verified, releases the claim and
// hands the volunteer the next ticket when one is waiting.
func (h *VolunteerHandler) Complete(c echo.Context) error {
	var req completeReq
	if err := c.Bind(&req); err != nil || req.TokenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	done, err := h.Manager.TokenByID(ctx, req.TokenID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "token not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	next, err := h.Manager.CompleteVerification(ctx, req.TokenID)
	monitoring.ObserveOp(queue.OpCompleted, err)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}
	h.notify(queue.OpCompleted, &done)

	resp := echo.Map{"completed": viewToken(&done)}
	if next != nil {
		h.notify(queue.OpClaimed, next)
		resp["next"] = viewToken(next)
	}
	return c.JSON(http.StatusOK, resp)
}

// Skip pushes the calling volunteer's current ticket back by the
// configured offset and hands them the new front of the queue.
func (h *VolunteerHandler) Skip(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	vid := middleware.VolunteerID(c)
	err := h.Manager.SkipAssignedToken(ctx, vid)
	monitoring.ObserveOp(queue.OpSkipped, err)
	if err != nil {
		switch {
		case errors.Is(err, tokenqueue.ErrNoAssignedToken):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no assigned token"})
		case errors.Is(err, tokenqueue.ErrSkipFailed):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "skip failed, queue will self-heal on next read"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "skip failed"})
	}

	resp := echo.Map{"skipped": true}
	if cur, qerr := h.Manager.AssignedToken(ctx, vid); qerr == nil && cur != nil {
		h.notify(queue.OpSkipped, cur)
		resp["token"] = viewToken(cur)
	}
	return c.JSON(http.StatusOK, resp)
}

// Availability toggles the calling volunteer's availability. Turning
// it on immediately runs auto assignment.
func (h *VolunteerHandler) Availability(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	vid := middleware.VolunteerID(c)
	if err := h.Volunteers.SetAvailability(ctx, vid, req.Available); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	resp := echo.Map{"available": req.Available}
	if req.Available {
		if tok, err := h.Manager.AutoAssignNext(ctx, vid); err == nil && tok != nil {
			monitoring.ObserveOp(queue.OpClaimed, nil)
			h.notify(queue.OpClaimed, tok)
			resp["token"] = viewToken(tok)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateStep toggles one checklist flag for a student. Steps are
// addressed by column name and whitelisted in the repository.
func (h *VolunteerHandler) UpdateStep(c echo.Context) error {
	roll := c.Param("roll")
	var req stepReq
	if err := c.Bind(&req); err != nil || req.Step == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "step required"})
	}
	if !repository.ValidStepColumn(req.Step) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown step"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Students.UpdateStep(ctx, roll, req.Step, req.Value); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"step": req.Step, "value": req.Value})
}

// Students lists or searches students for the dashboard table.
func (h *VolunteerHandler) StudentsIndex(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	q := c.QueryParam("q")
	var (
		students []model.Student
		err      error
	)
	if q != "" {
		students, err = h.Students.Search(ctx, q)
	} else {
		students, err = h.Students.List(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]studentView, 0, len(students))
	for i := range students {
		out = append(out, viewStudent(&students[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"students": out})
}

type studentView struct {
	RollNo        string  `json:"roll_no"`
	Name          string  `json:"name"`
	FeesPaid      bool    `json:"fees_paid"`
	HostelMess    bool    `json:"hostel_mess_status"`
	Insurance     bool    `json:"insurance_status"`
	LHCDocs       bool    `json:"lhc_docs_status"`
	FinalApproval bool    `json:"final_approval_status"`
	TokenAssigned bool    `json:"token_assigned"`
	Flagged       bool    `json:"flagged"`
	Progress      float64 `json:"progress"`
}

func viewStudent(s *model.Student) studentView {
	return studentView{
		RollNo:        s.IATRollNo,
		Name:          s.StudentName,
		FeesPaid:      s.FeesPaid,
		HostelMess:    s.HostelMessStatus,
		Insurance:     s.InsuranceStatus,
		LHCDocs:       s.LHCDocsStatus,
		FinalApproval: s.FinalApprovalStatus,
		TokenAssigned: s.TokenAssigned,
		Flagged:       s.Flagged,
		Progress:      float64(s.Progress()) / model.TotalSteps,
	}
}

// Stats returns the dashboard counters.
func (h *VolunteerHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Manager.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	monitoring.QueueDepth.Set(float64(st.QueueDepth))
	return c.JSON(http.StatusOK, st)
}
