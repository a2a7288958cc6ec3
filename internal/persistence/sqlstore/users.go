package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/exam-scheduler/internal/persistence"
)

const userColumns = `id, email, full_name, role, student_group, year_of_study, created_at, updated_at`

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	FullName     string         `db:"full_name"`
	Role         string         `db:"role"`
	StudentGroup sql.NullString `db:"student_group"`
	YearOfStudy  sql.NullInt64  `db:"year_of_study"`
	CreatedAt    dbTime         `db:"created_at"`
	UpdatedAt    dbTime         `db:"updated_at"`
}

func (r userRow) model() persistence.User {
	user := persistence.User{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      r.Role,
		CreatedAt: r.CreatedAt.Time(),
		UpdatedAt: r.UpdatedAt.Time(),
	}
	if r.StudentGroup.Valid {
		group := r.StudentGroup.String
		user.StudentGroup = &group
	}
	if r.YearOfStudy.Valid {
		year := int(r.YearOfStudy.Int64)
		user.YearOfStudy = &year
	}
	return user
}

func (t *txRepos) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := t.exec(ctx, "create user",
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FullName, user.Role, user.StudentGroup, user.YearOfStudy,
		t.dialect.timeArg(user.CreatedAt), t.dialect.timeArg(user.UpdatedAt),
	)
	return err
}

func (t *txRepos) UpdateUser(ctx context.Context, id string, update persistence.UserUpdate) error {
	return t.execOne(ctx, "update user",
		`UPDATE users SET
			full_name = COALESCE(?, full_name),
			role = COALESCE(?, role),
			student_group = COALESCE(?, student_group),
			year_of_study = COALESCE(?, year_of_study),
			updated_at = ?
		WHERE id = ?`,
		update.FullName, update.Role, update.StudentGroup, update.YearOfStudy,
		t.dialect.timeArg(update.UpdatedAt), id,
	)
}

func (t *txRepos) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var row userRow
	if err := t.get(ctx, "get user", &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return persistence.User{}, err
	}
	return row.model(), nil
}

func (t *txRepos) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.StudentGroup != "" {
		conds = append(conds, "student_group = ?")
		args = append(args, filter.StudentGroup)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where(conds) + ` ORDER BY full_name, id`
	var rows []userRow
	if err := t.selectAll(ctx, "list users", &rows, query, args...); err != nil {
		return nil, err
	}
	users := make([]persistence.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.model())
	}
	return users, nil
}

func (t *txRepos) DeleteUser(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete user", `DELETE FROM users WHERE id = ?`, id)
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
