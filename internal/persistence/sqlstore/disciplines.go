package sqlstore

import (
	"context"

	"github.com/example/exam-scheduler/internal/persistence"
)

const disciplineColumns = `id, name, year_of_study, specialization, created_at`

type disciplineRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	YearOfStudy    int    `db:"year_of_study"`
	Specialization string `db:"specialization"`
	CreatedAt      dbTime `db:"created_at"`
}

func (r disciplineRow) model() persistence.Discipline {
	return persistence.Discipline{
		ID:             r.ID,
		Name:           r.Name,
		YearOfStudy:    r.YearOfStudy,
		Specialization: r.Specialization,
		CreatedAt:      r.CreatedAt.Time(),
	}
}

func (t *txRepos) CreateDiscipline(ctx context.Context, discipline persistence.Discipline) error {
	_, err := t.exec(ctx, "create discipline",
		`INSERT INTO disciplines (`+disciplineColumns+`) VALUES (?, ?, ?, ?, ?)`,
		discipline.ID, discipline.Name, discipline.YearOfStudy, discipline.Specialization,
		t.dialect.timeArg(discipline.CreatedAt),
	)
	return err
}

func (t *txRepos) GetDiscipline(ctx context.Context, id string) (persistence.Discipline, error) {
	var row disciplineRow
	if err := t.get(ctx, "get discipline", &row, `SELECT `+disciplineColumns+` FROM disciplines WHERE id = ?`, id); err != nil {
		return persistence.Discipline{}, err
	}
	return row.model(), nil
}

func (t *txRepos) ListDisciplines(ctx context.Context) ([]persistence.Discipline, error) {
	var rows []disciplineRow
	if err := t.selectAll(ctx, "list disciplines", &rows, `SELECT `+disciplineColumns+` FROM disciplines ORDER BY name, id`); err != nil {
		return nil, err
	}
	out := make([]persistence.Discipline, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
