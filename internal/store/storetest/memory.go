// Package storetest provides an in-memory store.Store for tests. Uniqueness
// and foreign-key rules mirror the PostgreSQL schema; transactions are
// serialised and roll back by restoring a snapshot.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

type data struct {
	users      map[int64]models.User
	events     map[int64]models.Event
	points     map[int64]models.ControlPoint
	tokens     map[int64]models.QRToken
	attendance map[int64]models.Attendance
	exports    map[uuid.UUID]models.AttendanceExport
}

func newData() *data {
	return &data{
		users:      map[int64]models.User{},
		events:     map[int64]models.Event{},
		points:     map[int64]models.ControlPoint{},
		tokens:     map[int64]models.QRToken{},
		attendance: map[int64]models.Attendance{},
		exports:    map[uuid.UUID]models.AttendanceExport{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.points {
		c.points[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	for k, v := range d.attendance {
		c.attendance[k] = v
	}
	for k, v := range d.exports {
		c.exports[k] = v
	}
	return c
}

type db struct {
	mu     sync.Mutex
	data   *data
	seq    int64
	now    func() time.Time
	faults map[string]error
}

// Store is the in-memory store.
type Store struct {
	db   *db
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{db: &db{data: newData(), now: time.Now, faults: map[string]error{}}}
}

// SetNow overrides the clock used for server-assigned timestamps.
func (s *Store) SetNow(now func() time.Time) {
	unlock := s.lock()
	defer unlock()
	s.db.now = now
}

// FailNext makes the next call of op (e.g. "attendance.create") return err.
func (s *Store) FailNext(op string, err error) {
	unlock := s.lock()
	defer unlock()
	s.db.faults[op] = err
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) fault(op string) error {
	if err, ok := s.db.faults[op]; ok {
		delete(s.db.faults, op)
		return err
	}
	return nil
}

func (s *Store) nextID() int64 {
	s.db.seq++
	return s.db.seq
}

func (s *Store) Users() store.Users                 { return usersRepo{s} }
func (s *Store) Events() store.Events               { return eventsRepo{s} }
func (s *Store) ControlPoints() store.ControlPoints { return pointsRepo{s} }
func (s *Store) QRTokens() store.QRTokens           { return tokensRepo{s} }
func (s *Store) Attendance() store.Attendance       { return attendanceRepo{s} }
func (s *Store) Exports() store.Exports             { return exportsRepo{s} }

// WithTx serialises top-level transactions. Nested calls act as savepoints.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	snapshot := s.db.data.clone()
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.data = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.db.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	unlock := s.lock()
	defer unlock()
	return s.fault("ping")
}

type usersRepo struct{ s *Store }

func (r usersRepo) Create(_ context.Context, u *models.User) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("users.create"); err != nil {
		return err
	}
	for _, existing := range r.s.db.data.users {
		if existing.Document == u.Document {
			return store.ErrDuplicateDocument
		}
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	u.ID = r.s.nextID()
	u.Active = true
	u.CreatedAt = r.s.db.now()
	r.s.db.data.users[u.ID] = *u
	return nil
}

func (r usersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	unlock := r.s.lock()
	defer unlock()
	u, ok := r.s.db.data.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r usersRepo) GetByDocument(_ context.Context, document string) (*models.User, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, u := range r.s.db.data.users {
		if u.Document == document {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r usersRepo) List(_ context.Context) ([]models.User, error) {
	unlock := r.s.lock()
	defer unlock()
	list := make([]models.User, 0, len(r.s.db.data.users))
	for _, u := range r.s.db.data.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastName != list[j].LastName {
			return list[i].LastName < list[j].LastName
		}
		if list[i].FirstName != list[j].FirstName {
			return list[i].FirstName < list[j].FirstName
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r usersRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	unlock := r.s.lock()
	defer unlock()
	u, ok := r.s.db.data.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = hash
	r.s.db.data.users[id] = u
	return nil
}

func (r usersRepo) SetActive(_ context.Context, id int64, active bool) error {
	unlock := r.s.lock()
	defer unlock()
	u, ok := r.s.db.data.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Active = active
	r.s.db.data.users[id] = u
	return nil
}

func (r usersRepo) LockForUpdate(_ context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	if _, ok := r.s.db.data.users[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

type eventsRepo struct{ s *Store }

func (r eventsRepo) Create(_ context.Context, e *models.Event) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("events.create"); err != nil {
		return err
	}
	if e.InstructorID != nil {
		if _, ok := r.s.db.data.users[*e.InstructorID]; !ok {
			return store.ErrNotFound
		}
	}
	e.ID = r.s.nextID()
	e.Active = true
	e.CreatedAt = r.s.db.now()
	r.s.db.data.events[e.ID] = *e
	return nil
}

func (r eventsRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("events.get"); err != nil {
		return nil, err
	}
	e, ok := r.s.db.data.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (r eventsRepo) GetForShare(ctx context.Context, id int64) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r eventsRepo) List(_ context.Context) ([]models.Event, error) {
	unlock := r.s.lock()
	defer unlock()
	list := make([]models.Event, 0, len(r.s.db.data.events))
	for _, e := range r.s.db.data.events {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].StartsAt.After(list[j].StartsAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r eventsRepo) SetActive(_ context.Context, id int64, active bool) error {
	unlock := r.s.lock()
	defer unlock()
	e, ok := r.s.db.data.events[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Active = active
	r.s.db.data.events[id] = e
	return nil
}

func (r eventsRepo) Delete(_ context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.db.data
	if _, ok := d.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.events, id)
	for pid, p := range d.points {
		if p.EventID != nil && *p.EventID == id {
			delete(d.points, pid)
			clearPointRefs(d, pid)
		}
	}
	for tid, t := range d.tokens {
		if t.EventID != nil && *t.EventID == id {
			delete(d.tokens, tid)
			for aid, a := range d.attendance {
				if a.QRTokenID != nil && *a.QRTokenID == tid {
					a.QRTokenID = nil
					d.attendance[aid] = a
				}
			}
		}
	}
	for aid, a := range d.attendance {
		if a.EventID == id {
			delete(d.attendance, aid)
		}
	}
	for xid, x := range d.exports {
		if x.EventID == id {
			delete(d.exports, xid)
		}
	}
	return nil
}

func clearPointRefs(d *data, pointID int64) {
	for tid, t := range d.tokens {
		if t.PointID != nil && *t.PointID == pointID {
			t.PointID = nil
			d.tokens[tid] = t
		}
	}
	for aid, a := range d.attendance {
		if a.PointID != nil && *a.PointID == pointID {
			a.PointID = nil
			d.attendance[aid] = a
		}
	}
}

type pointsRepo struct{ s *Store }

func (r pointsRepo) Create(_ context.Context, p *models.ControlPoint) error {
	unlock := r.s.lock()
	defer unlock()
	if p.EventID != nil {
		if _, ok := r.s.db.data.events[*p.EventID]; !ok {
			return store.ErrNotFound
		}
	}
	p.ID = r.s.nextID()
	r.s.db.data.points[p.ID] = *p
	return nil
}

func (r pointsRepo) GetByID(_ context.Context, id int64) (*models.ControlPoint, error) {
	unlock := r.s.lock()
	defer unlock()
	p, ok := r.s.db.data.points[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r pointsRepo) List(_ context.Context, eventID *int64) ([]models.ControlPoint, error) {
	unlock := r.s.lock()
	defer unlock()
	list := []models.ControlPoint{}
	for _, p := range r.s.db.data.points {
		if eventID != nil && (p.EventID == nil || *p.EventID != *eventID) {
			continue
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

type tokensRepo struct{ s *Store }

func sameEvent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r tokensRepo) Create(_ context.Context, t *models.QRToken) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("qr.create"); err != nil {
		return err
	}
	d := r.s.db.data
	if _, ok := d.users[t.UserID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range d.tokens {
		if existing.Code == t.Code {
			return store.ErrDuplicateCode
		}
	}
	for _, existing := range d.tokens {
		if existing.Active && existing.UserID == t.UserID && sameEvent(existing.EventID, t.EventID) {
			return store.ErrLiveTokenExists
		}
	}
	t.ID = r.s.nextID()
	t.Active = true
	t.CreatedAt = r.s.db.now()
	d.tokens[t.ID] = *t
	return nil
}

func (r tokensRepo) GetByID(_ context.Context, id int64) (*models.QRToken, error) {
	unlock := r.s.lock()
	defer unlock()
	t, ok := r.s.db.data.tokens[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (r tokensRepo) GetByCode(_ context.Context, code string) (*models.QRToken, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, t := range r.s.db.data.tokens {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r tokensRepo) ListByUser(_ context.Context, userID int64) ([]models.QRToken, error) {
	unlock := r.s.lock()
	defer unlock()
	list := []models.QRToken{}
	for _, t := range r.s.db.data.tokens {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r tokensRepo) Deactivate(_ context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	t, ok := r.s.db.data.tokens[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Active = false
	r.s.db.data.tokens[id] = t
	return nil
}

func (r tokensRepo) RetireExpired(_ context.Context, userID int64, eventID *int64, now time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()
	var n int64
	for id, t := range r.s.db.data.tokens {
		if t.UserID == userID && sameEvent(t.EventID, eventID) && t.Active && t.Expired(now) {
			t.Active = false
			r.s.db.data.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r tokensRepo) RetireAllExpired(_ context.Context, now time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("qr.retire_all"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range r.s.db.data.tokens {
		if t.Active && t.Expired(now) {
			t.Active = false
			r.s.db.data.tokens[id] = t
			n++
		}
	}
	return n, nil
}

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) Create(_ context.Context, a *models.Attendance) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("attendance.create"); err != nil {
		return err
	}
	d := r.s.db.data
	if _, ok := d.users[a.UserID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := d.events[a.EventID]; !ok {
		return store.ErrNotFound
	}
	a.ID = r.s.nextID()
	d.attendance[a.ID] = *a
	return nil
}

func (r attendanceRepo) ListByUser(_ context.Context, userID int64) ([]models.Attendance, error) {
	unlock := r.s.lock()
	defer unlock()
	list := []models.Attendance{}
	for _, a := range r.s.db.data.attendance {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].RecordedAt.Equal(list[j].RecordedAt) {
			return list[i].RecordedAt.After(list[j].RecordedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r attendanceRepo) ListByEvent(_ context.Context, eventID int64) ([]models.AttendanceDetail, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.db.data
	list := []models.AttendanceDetail{}
	for _, a := range d.attendance {
		if a.EventID != eventID {
			continue
		}
		u := d.users[a.UserID]
		list = append(list, models.AttendanceDetail{Attendance: a, Document: u.Document, FirstName: u.FirstName, LastName: u.LastName})
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].RecordedAt.Equal(list[j].RecordedAt) {
			return list[i].RecordedAt.Before(list[j].RecordedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r attendanceRepo) ExistsForUserEvent(_ context.Context, userID, eventID int64) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, a := range r.s.db.data.attendance {
		if a.UserID == userID && a.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

type exportsRepo struct{ s *Store }

func (r exportsRepo) Create(_ context.Context, e *models.AttendanceExport) error {
	unlock := r.s.lock()
	defer unlock()
	if _, ok := r.s.db.data.events[e.EventID]; !ok {
		return store.ErrNotFound
	}
	e.CreatedAt = r.s.db.now()
	r.s.db.data.exports[e.ID] = *e
	return nil
}

func (r exportsRepo) GetByID(_ context.Context, id uuid.UUID) (*models.AttendanceExport, error) {
	unlock := r.s.lock()
	defer unlock()
	e, ok := r.s.db.data.exports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (r exportsRepo) MarkCompleted(_ context.Context, id uuid.UUID, objectKey string, rows int, at time.Time) error {
	unlock := r.s.lock()
	defer unlock()
	e, ok := r.s.db.data.exports[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Status = models.ExportCompleted
	e.ObjectKey = objectKey
	e.Rows = rows
	e.Error = ""
	e.CompletedAt = &at
	r.s.db.data.exports[id] = e
	return nil
}

func (r exportsRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	unlock := r.s.lock()
	defer unlock()
	e, ok := r.s.db.data.exports[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Status = models.ExportFailed
	e.Error = reason
	e.CompletedAt = &at
	r.s.db.data.exports[id] = e
	return nil
}
