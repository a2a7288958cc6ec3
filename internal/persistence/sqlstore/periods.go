package sqlstore

import (
	"context"

	"github.com/example/exam-scheduler/internal/persistence"
)

const periodColumns = `id, name, start_date, end_date, is_active, created_at, updated_at`

type periodRow struct {
	ID        string   `db:"id"`
	Name      string   `db:"name"`
	StartDate nullDate `db:"start_date"`
	EndDate   nullDate `db:"end_date"`
	IsActive  bool     `db:"is_active"`
	CreatedAt dbTime   `db:"created_at"`
	UpdatedAt dbTime   `db:"updated_at"`
}

func (r periodRow) model() persistence.ExamPeriod {
	return persistence.ExamPeriod{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate.String,
		EndDate:   r.EndDate.String,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.Time(),
		UpdatedAt: r.UpdatedAt.Time(),
	}
}

func (t *txRepos) CreatePeriod(ctx context.Context, period persistence.ExamPeriod) error {
	_, err := t.exec(ctx, "create period",
		`INSERT INTO exam_periods (`+periodColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		period.ID, period.Name, period.StartDate, period.EndDate, period.IsActive,
		t.dialect.timeArg(period.CreatedAt), t.dialect.timeArg(period.UpdatedAt),
	)
	return err
}

func (t *txRepos) UpdatePeriod(ctx context.Context, id string, update persistence.PeriodUpdate) error {
	return t.execOne(ctx, "update period",
		`UPDATE exam_periods SET
			name = COALESCE(?, name),
			start_date = COALESCE(?, start_date),
			end_date = COALESCE(?, end_date),
			is_active = COALESCE(?, is_active),
			updated_at = ?
		WHERE id = ?`,
		update.Name, update.StartDate, update.EndDate, update.IsActive,
		t.dialect.timeArg(update.UpdatedAt), id,
	)
}

func (t *txRepos) GetPeriod(ctx context.Context, id string) (persistence.ExamPeriod, error) {
	var row periodRow
	if err := t.get(ctx, "get period", &row, `SELECT `+periodColumns+` FROM exam_periods WHERE id = ?`, id); err != nil {
		return persistence.ExamPeriod{}, err
	}
	return row.model(), nil
}

func (t *txRepos) ListPeriods(ctx context.Context) ([]persistence.ExamPeriod, error) {
	var rows []periodRow
	if err := t.selectAll(ctx, "list periods", &rows,
		`SELECT `+periodColumns+` FROM exam_periods ORDER BY start_date DESC, id`); err != nil {
		return nil, err
	}
	out := make([]persistence.ExamPeriod, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (t *txRepos) DeletePeriod(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete period", `DELETE FROM exam_periods WHERE id = ?`, id)
}
