package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/exam-scheduler/internal/persistence"
)

const examColumns = `id, discipline_id, kind, student_group, main_teacher_id, second_teacher_id,
	room_id, exam_date, start_hour, duration_minutes, status, created_by, created_at, updated_at`

type examRow struct {
	ID              string         `db:"id"`
	DisciplineID    string         `db:"discipline_id"`
	Kind            string         `db:"kind"`
	StudentGroup    string         `db:"student_group"`
	MainTeacherID   string         `db:"main_teacher_id"`
	SecondTeacherID string         `db:"second_teacher_id"`
	RoomID          sql.NullString `db:"room_id"`
	ExamDate        nullDate       `db:"exam_date"`
	StartHour       sql.NullInt64  `db:"start_hour"`
	DurationMinutes int            `db:"duration_minutes"`
	Status          string         `db:"status"`
	CreatedBy       string         `db:"created_by"`
	CreatedAt       dbTime         `db:"created_at"`
	UpdatedAt       dbTime         `db:"updated_at"`
}

func (r examRow) model() persistence.Exam {
	exam := persistence.Exam{
		ID:              r.ID,
		DisciplineID:    r.DisciplineID,
		Kind:            r.Kind,
		StudentGroup:    r.StudentGroup,
		MainTeacherID:   r.MainTeacherID,
		SecondTeacherID: r.SecondTeacherID,
		ExamDate:        r.ExamDate.Ptr(),
		DurationMinutes: r.DurationMinutes,
		Status:          r.Status,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt.Time(),
		UpdatedAt:       r.UpdatedAt.Time(),
	}
	if r.RoomID.Valid {
		room := r.RoomID.String
		exam.RoomID = &room
	}
	if r.StartHour.Valid {
		hour := int(r.StartHour.Int64)
		exam.StartHour = &hour
	}
	return exam
}

func (t *txRepos) CreateExam(ctx context.Context, exam persistence.Exam) error {
	_, err := t.exec(ctx, "create exam",
		`INSERT INTO exams (`+examColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exam.ID, exam.DisciplineID, exam.Kind, exam.StudentGroup, exam.MainTeacherID, exam.SecondTeacherID,
		exam.RoomID, exam.ExamDate, exam.StartHour, exam.DurationMinutes, exam.Status, exam.CreatedBy,
		t.dialect.timeArg(exam.CreatedAt), t.dialect.timeArg(exam.UpdatedAt),
	)
	return err
}

// GetExam locks the row on backends with row locks when called from a write unit.
func (t *txRepos) GetExam(ctx context.Context, id string) (persistence.Exam, error) {
	var row examRow
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = ?` + t.lockSuffix()
	if err := t.get(ctx, "get exam", &row, query, id); err != nil {
		return persistence.Exam{}, err
	}
	return row.model(), nil
}

// UpdateExam applies every provided field in one statement.
func (t *txRepos) UpdateExam(ctx context.Context, id string, update persistence.ExamUpdate) error {
	return t.execOne(ctx, "update exam",
		`UPDATE exams SET
			student_group = COALESCE(?, student_group),
			room_id = COALESCE(?, room_id),
			exam_date = COALESCE(?, exam_date),
			start_hour = COALESCE(?, start_hour),
			duration_minutes = COALESCE(?, duration_minutes),
			status = COALESCE(?, status),
			updated_at = ?
		WHERE id = ?`,
		update.StudentGroup, update.RoomID, update.ExamDate, update.StartHour, update.DurationMinutes,
		update.Status, t.dialect.timeArg(update.UpdatedAt), id,
	)
}

func (t *txRepos) ListExams(ctx context.Context, filter persistence.ExamFilter) ([]persistence.Exam, error) {
	conds, args := examConditions(filter)
	query := `SELECT ` + examColumns + ` FROM exams` + where(conds) + ` ORDER BY created_at, id`

	var rows []examRow
	if err := t.selectAll(ctx, "list exams", &rows, query, args...); err != nil {
		return nil, err
	}
	exams := make([]persistence.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.model())
	}
	return exams, nil
}

func (t *txRepos) CountExams(ctx context.Context, filter persistence.ExamFilter) (int, error) {
	conds, args := examConditions(filter)
	var counts []int
	if err := t.selectAll(ctx, "count exams", &counts, `SELECT COUNT(*) FROM exams`+where(conds), args...); err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0], nil
}

func (t *txRepos) DeleteExam(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete exam", `DELETE FROM exams WHERE id = ?`, id)
}

func examConditions(filter persistence.ExamFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.StudentGroup != "" {
		conds = append(conds, "student_group = ?")
		args = append(args, filter.StudentGroup)
	}
	if filter.TeacherID != "" {
		conds = append(conds, "(main_teacher_id = ? OR second_teacher_id = ?)")
		args = append(args, filter.TeacherID, filter.TeacherID)
	}
	if filter.DisciplineID != "" {
		conds = append(conds, "discipline_id = ?")
		args = append(args, filter.DisciplineID)
	}
	if filter.RoomID != "" {
		conds = append(conds, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.ExamDate != "" {
		conds = append(conds, "exam_date = ?")
		args = append(args, filter.ExamDate)
	}
	if filter.StartHour != nil {
		conds = append(conds, "start_hour = ?")
		args = append(args, *filter.StartHour)
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, "status IN (?)")
		args = append(args, filter.Statuses)
	}
	if filter.DateFrom != "" {
		conds = append(conds, "exam_date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conds = append(conds, "exam_date <= ?")
		args = append(args, filter.DateTo)
	}
	return conds, args
}
