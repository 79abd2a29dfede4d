package model

import "time"

// Student represents an arriving student as stored in the `students`
// table. The step flags are toggled by volunteers and admins as the
// student clears each onboarding stage; the queue manager only reads
// them for eligibility and writes TokenAssigned as a side effect of
// token issuance.
//
// Fields:
//  ID                  – primary key identifier.
//  IATRollNo           – unique institute roll number.
//  StudentName         – full name for display.
//  FeesPaid            – fee payment confirmed.
//  HostelMessStatus    – hostel and mess registration complete.
//  InsuranceStatus     – insurance verification complete.
//  LHCDocsStatus       – LHC document verification complete; a token
//                        whose student has this flag set drops out of
//                        the active queue.
//  FinalApprovalStatus – final approval granted.
//  TokenAssigned       – cached flag, true iff a live approval token
//                        row exists for this roll number. Reconciled
//                        by the queue manager's consistency sweep.
//  Flagged             – marked for manual review by staff.
//  CreatedAt           – timestamp of creation.
type Student struct {
	ID                  uint64    // students.id
	IATRollNo           string    // students.iat_roll_no
	StudentName         string    // students.student_name
	FeesPaid            bool      // students.fees_paid
	HostelMessStatus    bool      // students.hostel_mess_status
	InsuranceStatus     bool      // students.insurance_status
	LHCDocsStatus       bool      // students.lhc_docs_status
	FinalApprovalStatus bool      // students.final_approval_status
	TokenAssigned       bool      // students.token_assigned
	Flagged             bool      // students.flagged
	CreatedAt           time.Time // students.created_at
}

// StepNames lists the onboarding checklist steps in order. The index
// matches the step identifiers used by the dashboard statistics.
var StepNames = []string{
	"Hostel & Mess Registration",
	"Insurance Verification",
	"LHC Documents",
	"Final Approval",
}

// TotalSteps is the number of checklist steps tracked per student.
const TotalSteps = 4

// Progress returns how many checklist steps the student has completed.
func (s Student) Progress() int {
	n := 0
	for _, done := range []bool{s.HostelMessStatus, s.InsuranceStatus, s.LHCDocsStatus, s.FinalApprovalStatus} {
		if done {
			n++
		}
	}
	return n
}

// EligibleForToken reports whether the student has cleared every
// prerequisite step required before an approval token may be issued.
func (s Student) EligibleForToken() bool {
	return s.FeesPaid && s.HostelMessStatus && s.InsuranceStatus
}
