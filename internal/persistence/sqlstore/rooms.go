package sqlstore

import (
	"context"

	"github.com/example/exam-scheduler/internal/persistence"
)

const roomColumns = `id, name, short_name, building, capacity, created_at, updated_at`

type roomRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	ShortName string `db:"short_name"`
	Building  string `db:"building"`
	Capacity  int    `db:"capacity"`
	CreatedAt dbTime `db:"created_at"`
	UpdatedAt dbTime `db:"updated_at"`
}

func (r roomRow) model() persistence.Room {
	return persistence.Room{
		ID:        r.ID,
		Name:      r.Name,
		ShortName: r.ShortName,
		Building:  r.Building,
		Capacity:  r.Capacity,
		CreatedAt: r.CreatedAt.Time(),
		UpdatedAt: r.UpdatedAt.Time(),
	}
}

func (t *txRepos) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := t.exec(ctx, "create room",
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.ShortName, room.Building, room.Capacity,
		t.dialect.timeArg(room.CreatedAt), t.dialect.timeArg(room.UpdatedAt),
	)
	return err
}

func (t *txRepos) UpdateRoom(ctx context.Context, room persistence.Room) error {
	return t.execOne(ctx, "update room",
		`UPDATE rooms SET name = ?, short_name = ?, building = ?, capacity = ?, updated_at = ? WHERE id = ?`,
		room.Name, room.ShortName, room.Building, room.Capacity, t.dialect.timeArg(room.UpdatedAt), room.ID,
	)
}

func (t *txRepos) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var row roomRow
	if err := t.get(ctx, "get room", &row, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id); err != nil {
		return persistence.Room{}, err
	}
	return row.model(), nil
}

func (t *txRepos) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	var rows []roomRow
	if err := t.selectAll(ctx, "list rooms", &rows, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`); err != nil {
		return nil, err
	}
	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.model())
	}
	return rooms, nil
}

func (t *txRepos) DeleteRoom(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete room", `DELETE FROM rooms WHERE id = ?`, id)
}
