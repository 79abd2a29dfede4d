package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// StudentRepo provides CRUD operations over the students table.
// Step flags are stored as individual boolean columns mirroring the
// onboarding checklist; UpdateStep only accepts whitelisted columns
// so callers can never inject arbitrary SQL.
type StudentRepo struct{ DB *sql.DB }

// NewStudentRepo returns a StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{DB: db} }

const studentCols = `id, iat_roll_no, student_name, fees_paid, hostel_mess_status,
	insurance_status, lhc_docs_status, final_approval_status, token_assigned, flagged, created_at`

// stepColumns whitelists the student columns a volunteer may toggle
// through the step-update endpoint.
var stepColumns = map[string]bool{
	"fees_paid":             true,
	"hostel_mess_status":    true,
	"insurance_status":      true,
	"lhc_docs_status":       true,
	"final_approval_status": true,
	"flagged":               true,
}

// ValidStepColumn reports whether name may be passed to UpdateStep.
func ValidStepColumn(name string) bool { return stepColumns[name] }

// Create inserts a student and returns its ID. Roll numbers are
// normalized to upper case before insertion.
func (r *StudentRepo) Create(ctx context.Context, rollNo, name string) (uint64, error) {
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO students (iat_roll_no, student_name) VALUES (?,?)",
		rollNo, strings.TrimSpace(name))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrRollNoExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.IATRollNo, &s.StudentName, &s.FeesPaid, &s.HostelMessStatus,
		&s.InsuranceStatus, &s.LHCDocsStatus, &s.FinalApprovalStatus, &s.TokenAssigned,
		&s.Flagged, &s.CreatedAt)
	return s, err
}

// GetByRollNo fetches a student by normalized roll number. Returns
// sql.ErrNoRows when the student does not exist.
func (r *StudentRepo) GetByRollNo(ctx context.Context, rollNo string) (model.Student, error) {
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	return scanStudent(r.DB.QueryRowContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE iat_roll_no=? LIMIT 1", rollNo))
}

// GetByID fetches a student by primary key.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	return scanStudent(r.DB.QueryRowContext(ctx,
		"SELECT "+studentCols+" FROM students WHERE id=? LIMIT 1", id))
}

// List returns all students ordered newest first.
func (r *StudentRepo) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+studentCols+" FROM students ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Search returns students whose roll number or name contains q,
// case-insensitively, ordered newest first.
func (r *StudentRepo) Search(ctx context.Context, q string) ([]model.Student, error) {
	like := "%" + strings.TrimSpace(q) + "%"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+studentCols+` FROM students
		 WHERE iat_roll_no LIKE ? OR student_name LIKE ?
		 ORDER BY created_at DESC, id DESC`, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// UpdateStep sets a single checklist column for a student. The column
// must pass ValidStepColumn; unknown columns are rejected with
// ErrConflict rather than interpolated into the statement.
func (r *StudentRepo) UpdateStep(ctx context.Context, rollNo, column string, value bool) error {
	if !stepColumns[column] {
		return ErrConflict
	}
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE students SET "+column+"=? WHERE iat_roll_no=?", value, rollNo)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Row may exist with the value already set; distinguish absence.
		var id uint64
		if err := r.DB.QueryRowContext(ctx,
			"SELECT id FROM students WHERE iat_roll_no=? LIMIT 1", rollNo).Scan(&id); err != nil {
			return err
		}
	}
	return nil
}

// SetTokenAssigned writes the cached token_assigned flag. The queue
// manager calls this on issuance and during the consistency sweep.
func (r *StudentRepo) SetTokenAssigned(ctx context.Context, rollNo string, assigned bool) error {
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE students SET token_assigned=? WHERE iat_roll_no=?", assigned, rollNo)
	return err
}

// SetVerified marks the LHC document step complete for a student.
func (r *StudentRepo) SetVerified(ctx context.Context, rollNo string) error {
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE students SET lhc_docs_status=1 WHERE iat_roll_no=?", rollNo)
	return err
}
