// Package memory provides an in-process persistence.Store. Units of work run
// against a private copy of the dataset that replaces the shared one only when
// the unit succeeds, so a failed unit leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/exam-scheduler/internal/persistence"
)

// Storage is a mutex-serialized in-memory store.
type Storage struct {
	mu   sync.RWMutex
	data *dataset
}

type dataset struct {
	users       map[string]persistence.User
	rooms       map[string]persistence.Room
	disciplines map[string]persistence.Discipline
	periods     map[string]persistence.ExamPeriod
	exams       map[string]persistence.Exam
}

var _ persistence.Store = (*Storage)(nil)

// Open returns an empty Storage.
func Open() *Storage {
	return &Storage{data: &dataset{
		users:       make(map[string]persistence.User),
		rooms:       make(map[string]persistence.Room),
		disciplines: make(map[string]persistence.Discipline),
		periods:     make(map[string]persistence.ExamPeriod),
		exams:       make(map[string]persistence.Exam),
	}}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Atomic runs fn with exclusive access and commits its writes only on success.
func (s *Storage) Atomic(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, &tx{data: working, writable: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = working
	return nil
}

// ReadOnly runs fn against a consistent view that rejects writes.
func (s *Storage) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &tx{data: s.data})
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		users:       make(map[string]persistence.User, len(d.users)),
		rooms:       make(map[string]persistence.Room, len(d.rooms)),
		disciplines: make(map[string]persistence.Discipline, len(d.disciplines)),
		periods:     make(map[string]persistence.ExamPeriod, len(d.periods)),
		exams:       make(map[string]persistence.Exam, len(d.exams)),
	}
	for id, u := range d.users {
		out.users[id] = cloneUser(u)
	}
	for id, r := range d.rooms {
		out.rooms[id] = r
	}
	for id, disc := range d.disciplines {
		out.disciplines[id] = disc
	}
	for id, p := range d.periods {
		out.periods[id] = p
	}
	for id, e := range d.exams {
		out.exams[id] = cloneExam(e)
	}
	return out
}

type tx struct {
	data     *dataset
	writable bool
}

func (t *tx) Users() persistence.UserRepository             { return t }
func (t *tx) Rooms() persistence.RoomRepository             { return t }
func (t *tx) Disciplines() persistence.DisciplineRepository { return t }
func (t *tx) Periods() persistence.PeriodRepository         { return t }
func (t *tx) Exams() persistence.ExamRepository             { return t }

func (t *tx) checkWritable() error {
	if !t.writable {
		return persistence.ErrReadOnly
	}
	return nil
}

// --- UserRepository implementation ---

func (t *tx) CreateUser(ctx context.Context, user persistence.User) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s: %w", user.ID, persistence.ErrDuplicate)
	}
	lower := strings.ToLower(user.Email)
	for _, existing := range t.data.users {
		if strings.ToLower(existing.Email) == lower {
			return fmt.Errorf("memory: email %s: %w", user.Email, persistence.ErrDuplicate)
		}
	}
	t.data.users[user.ID] = cloneUser(user)
	return nil
}

func (t *tx) UpdateUser(ctx context.Context, id string, update persistence.UserUpdate) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	user, ok := t.data.users[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.StudentGroup != nil {
		group := *update.StudentGroup
		user.StudentGroup = &group
	}
	if update.YearOfStudy != nil {
		year := *update.YearOfStudy
		user.YearOfStudy = &year
	}
	user.UpdatedAt = update.UpdatedAt
	t.data.users[id] = user
	return nil
}

func (t *tx) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := t.data.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

func (t *tx) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	users := make([]persistence.User, 0, len(t.data.users))
	for _, user := range t.data.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.StudentGroup != "" && (user.StudentGroup == nil || *user.StudentGroup != filter.StudentGroup) {
			continue
		}
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName == users[j].FullName {
			return users[i].ID < users[j].ID
		}
		return users[i].FullName < users[j].FullName
	})
	return users, nil
}

func (t *tx) DeleteUser(ctx context.Context, id string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.users[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, exam := range t.data.exams {
		if exam.MainTeacherID == id || exam.SecondTeacherID == id {
			return fmt.Errorf("memory: user %s is assigned to exam %s: %w", id, exam.ID, persistence.ErrForeignKeyViolation)
		}
	}
	delete(t.data.users, id)
	return nil
}

// --- RoomRepository implementation ---

func (t *tx) CreateRoom(ctx context.Context, room persistence.Room) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.rooms[room.ID]; ok {
		return fmt.Errorf("memory: room %s: %w", room.ID, persistence.ErrDuplicate)
	}
	if err := t.ensureUniqueRoomName(room.ID, room.Name); err != nil {
		return err
	}
	if room.Capacity <= 0 {
		return fmt.Errorf("memory: room capacity: %w", persistence.ErrConstraintViolation)
	}
	t.data.rooms[room.ID] = room
	return nil
}

func (t *tx) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	existing, ok := t.data.rooms[room.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := t.ensureUniqueRoomName(room.ID, room.Name); err != nil {
		return err
	}
	if room.Capacity <= 0 {
		return fmt.Errorf("memory: room capacity: %w", persistence.ErrConstraintViolation)
	}
	room.CreatedAt = existing.CreatedAt
	t.data.rooms[room.ID] = room
	return nil
}

func (t *tx) ensureUniqueRoomName(id, name string) error {
	for existingID, room := range t.data.rooms {
		if existingID != id && room.Name == name {
			return fmt.Errorf("memory: room name %s: %w", name, persistence.ErrDuplicate)
		}
	}
	return nil
}

func (t *tx) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	room, ok := t.data.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (t *tx) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rooms := make([]persistence.Room, 0, len(t.data.rooms))
	for _, room := range t.data.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

func (t *tx) DeleteRoom(ctx context.Context, id string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, exam := range t.data.exams {
		if exam.RoomID != nil && *exam.RoomID == id {
			return fmt.Errorf("memory: room %s is used by exam %s: %w", id, exam.ID, persistence.ErrForeignKeyViolation)
		}
	}
	delete(t.data.rooms, id)
	return nil
}

// --- DisciplineRepository implementation ---

func (t *tx) CreateDiscipline(ctx context.Context, discipline persistence.Discipline) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.disciplines[discipline.ID]; ok {
		return fmt.Errorf("memory: discipline %s: %w", discipline.ID, persistence.ErrDuplicate)
	}
	t.data.disciplines[discipline.ID] = discipline
	return nil
}

func (t *tx) GetDiscipline(ctx context.Context, id string) (persistence.Discipline, error) {
	discipline, ok := t.data.disciplines[id]
	if !ok {
		return persistence.Discipline{}, persistence.ErrNotFound
	}
	return discipline, nil
}

func (t *tx) ListDisciplines(ctx context.Context) ([]persistence.Discipline, error) {
	out := make([]persistence.Discipline, 0, len(t.data.disciplines))
	for _, d := range t.data.disciplines {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// --- PeriodRepository implementation ---

func (t *tx) CreatePeriod(ctx context.Context, period persistence.ExamPeriod) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.periods[period.ID]; ok {
		return fmt.Errorf("memory: period %s: %w", period.ID, persistence.ErrDuplicate)
	}
	if period.StartDate > period.EndDate {
		return fmt.Errorf("memory: period range: %w", persistence.ErrConstraintViolation)
	}
	t.data.periods[period.ID] = period
	return nil
}

func (t *tx) UpdatePeriod(ctx context.Context, id string, update persistence.PeriodUpdate) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	period, ok := t.data.periods[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if update.Name != nil {
		period.Name = *update.Name
	}
	if update.StartDate != nil {
		period.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		period.EndDate = *update.EndDate
	}
	if update.IsActive != nil {
		period.IsActive = *update.IsActive
	}
	if period.StartDate > period.EndDate {
		return fmt.Errorf("memory: period range: %w", persistence.ErrConstraintViolation)
	}
	period.UpdatedAt = update.UpdatedAt
	t.data.periods[id] = period
	return nil
}

func (t *tx) GetPeriod(ctx context.Context, id string) (persistence.ExamPeriod, error) {
	period, ok := t.data.periods[id]
	if !ok {
		return persistence.ExamPeriod{}, persistence.ErrNotFound
	}
	return period, nil
}

func (t *tx) ListPeriods(ctx context.Context) ([]persistence.ExamPeriod, error) {
	out := make([]persistence.ExamPeriod, 0, len(t.data.periods))
	for _, p := range t.data.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate == out[j].StartDate {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate > out[j].StartDate
	})
	return out, nil
}

func (t *tx) DeletePeriod(ctx context.Context, id string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.periods[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(t.data.periods, id)
	return nil
}

// --- ExamRepository implementation ---

func (t *tx) CreateExam(ctx context.Context, exam persistence.Exam) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.exams[exam.ID]; ok {
		return fmt.Errorf("memory: exam %s: %w", exam.ID, persistence.ErrDuplicate)
	}
	if err := t.checkExam(exam); err != nil {
		return err
	}
	t.data.exams[exam.ID] = cloneExam(exam)
	return nil
}

func (t *tx) GetExam(ctx context.Context, id string) (persistence.Exam, error) {
	exam, ok := t.data.exams[id]
	if !ok {
		return persistence.Exam{}, persistence.ErrNotFound
	}
	return cloneExam(exam), nil
}

func (t *tx) UpdateExam(ctx context.Context, id string, update persistence.ExamUpdate) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	exam, ok := t.data.exams[id]
	if !ok {
		return persistence.ErrNotFound
	}
	exam = cloneExam(exam)
	if update.StudentGroup != nil {
		exam.StudentGroup = *update.StudentGroup
	}
	if update.RoomID != nil {
		exam.RoomID = stringPtr(*update.RoomID)
	}
	if update.ExamDate != nil {
		exam.ExamDate = stringPtr(*update.ExamDate)
	}
	if update.StartHour != nil {
		exam.StartHour = intPtr(*update.StartHour)
	}
	if update.DurationMinutes != nil {
		exam.DurationMinutes = *update.DurationMinutes
	}
	if update.Status != nil {
		exam.Status = *update.Status
	}
	exam.UpdatedAt = update.UpdatedAt

	if err := t.checkExam(exam); err != nil {
		return err
	}
	t.data.exams[id] = exam
	return nil
}

func (t *tx) ListExams(ctx context.Context, filter persistence.ExamFilter) ([]persistence.Exam, error) {
	out := make([]persistence.Exam, 0)
	for _, exam := range t.data.exams {
		if matchesExamFilter(exam, filter) {
			out = append(out, cloneExam(exam))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *tx) CountExams(ctx context.Context, filter persistence.ExamFilter) (int, error) {
	count := 0
	for _, exam := range t.data.exams {
		if matchesExamFilter(exam, filter) {
			count++
		}
	}
	return count, nil
}

func (t *tx) DeleteExam(ctx context.Context, id string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.data.exams[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(t.data.exams, id)
	return nil
}

// checkExam mirrors the SQL schema constraints for a row about to be written.
func (t *tx) checkExam(exam persistence.Exam) error {
	if _, ok := t.data.disciplines[exam.DisciplineID]; !ok {
		return fmt.Errorf("memory: discipline %s: %w", exam.DisciplineID, persistence.ErrForeignKeyViolation)
	}
	for _, teacherID := range []string{exam.MainTeacherID, exam.SecondTeacherID} {
		if _, ok := t.data.users[teacherID]; !ok {
			return fmt.Errorf("memory: teacher %s: %w", teacherID, persistence.ErrForeignKeyViolation)
		}
	}
	if exam.RoomID != nil {
		if _, ok := t.data.rooms[*exam.RoomID]; !ok {
			return fmt.Errorf("memory: room %s: %w", *exam.RoomID, persistence.ErrForeignKeyViolation)
		}
	}
	if exam.StartHour != nil && (*exam.StartHour < 8 || *exam.StartHour > 20) {
		return fmt.Errorf("memory: start hour %d: %w", *exam.StartHour, persistence.ErrConstraintViolation)
	}
	if exam.DurationMinutes <= 0 {
		return fmt.Errorf("memory: duration: %w", persistence.ErrConstraintViolation)
	}

	for id, other := range t.data.exams {
		if id == exam.ID {
			continue
		}
		if other.DisciplineID == exam.DisciplineID && other.StudentGroup == exam.StudentGroup {
			return fmt.Errorf("memory: exam for discipline %s and group %s: %w", exam.DisciplineID, exam.StudentGroup, persistence.ErrDuplicate)
		}
		if holdsSlot(exam) && holdsSlot(other) && sameSlot(exam, other) {
			return fmt.Errorf("memory: slot held by exam %s: %w", id, persistence.ErrDuplicate)
		}
	}
	return nil
}

func holdsSlot(exam persistence.Exam) bool {
	if exam.RoomID == nil || exam.ExamDate == nil || exam.StartHour == nil {
		return false
	}
	switch exam.Status {
	case "PROPOSED", "ACCEPTED", "CONFIRMED":
		return true
	default:
		return false
	}
}

func sameSlot(a, b persistence.Exam) bool {
	return *a.RoomID == *b.RoomID && *a.ExamDate == *b.ExamDate && *a.StartHour == *b.StartHour
}

func matchesExamFilter(exam persistence.Exam, filter persistence.ExamFilter) bool {
	if filter.StudentGroup != "" && exam.StudentGroup != filter.StudentGroup {
		return false
	}
	if filter.TeacherID != "" && exam.MainTeacherID != filter.TeacherID && exam.SecondTeacherID != filter.TeacherID {
		return false
	}
	if filter.DisciplineID != "" && exam.DisciplineID != filter.DisciplineID {
		return false
	}
	if filter.RoomID != "" && (exam.RoomID == nil || *exam.RoomID != filter.RoomID) {
		return false
	}
	if filter.ExamDate != "" && (exam.ExamDate == nil || *exam.ExamDate != filter.ExamDate) {
		return false
	}
	if filter.StartHour != nil && (exam.StartHour == nil || *exam.StartHour != *filter.StartHour) {
		return false
	}
	if filter.DateFrom != "" && (exam.ExamDate == nil || *exam.ExamDate < filter.DateFrom) {
		return false
	}
	if filter.DateTo != "" && (exam.ExamDate == nil || *exam.ExamDate > filter.DateTo) {
		return false
	}
	if len(filter.Statuses) > 0 {
		matched := false
		for _, status := range filter.Statuses {
			if exam.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func cloneUser(user persistence.User) persistence.User {
	if user.StudentGroup != nil {
		user.StudentGroup = stringPtr(*user.StudentGroup)
	}
	if user.YearOfStudy != nil {
		user.YearOfStudy = intPtr(*user.YearOfStudy)
	}
	return user
}

func cloneExam(exam persistence.Exam) persistence.Exam {
	if exam.RoomID != nil {
		exam.RoomID = stringPtr(*exam.RoomID)
	}
	if exam.ExamDate != nil {
		exam.ExamDate = stringPtr(*exam.ExamDate)
	}
	if exam.StartHour != nil {
		exam.StartHour = intPtr(*exam.StartHour)
	}
	return exam
}

func stringPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
