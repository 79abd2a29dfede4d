package tokenqueue

import (
	"context"
	"math"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// Stats carries the derived counters shown on the volunteer dashboard.
type Stats struct {
	TotalStudents  int         `json:"total_students"`
	InProgress     int         `json:"in_progress"`
	Completed      int         `json:"completed"`
	CompletionRate float64     `json:"completion_rate"` // rounded percentage
	QueueDepth     int         `json:"queue_depth"`     // claimable entries
	StepCounts     []StepCount `json:"step_counts"`
}

// StepCount is the number of students past a given checklist step.
type StepCount struct {
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats recomputes all dashboard counters from stored data. A student
// counts as completed once final approval is granted; queue depth is
// the number of active tokens with no claim.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	students, err := m.store.ListStudents(ctx)
	if err != nil {
		return Stats{}, err
	}
	active, err := m.store.ActiveTokens(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalStudents: len(students),
		StepCounts:    make([]StepCount, model.TotalSteps),
	}
	for i, name := range model.StepNames {
		st.StepCounts[i] = StepCount{Step: i + 1, Name: name}
	}
	for _, s := range students {
		if s.FinalApprovalStatus {
			st.Completed++
		}
		for i, done := range []bool{s.HostelMessStatus, s.InsuranceStatus, s.LHCDocsStatus, s.FinalApprovalStatus} {
			if done {
				st.StepCounts[i].Count++
			}
		}
	}
	st.InProgress = st.TotalStudents - st.Completed
	if st.TotalStudents > 0 {
		st.CompletionRate = math.Round(float64(st.Completed) / float64(st.TotalStudents) * 100)
	}
	for _, t := range active {
		if !t.Claimed() {
			st.QueueDepth++
		}
	}
	return st, nil
}
