package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/peer-match-api/internal/models"
)

type fakeStudentRepo struct {
	items    []models.Student
	findErr  error
	listErr  error
	writeErr error
	sessions *fakeSessionRepo
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			s := f.items[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ListAll(ctx context.Context) ([]models.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Student(nil), f.items...), nil
}

func (f *fakeStudentRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := toSet(ids)
	out := []models.Student{}
	for _, s := range f.items {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ListUnmatched(ctx context.Context, ids []string) ([]models.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := toSet(ids)
	engaged := f.sessions.engaged(func(s *models.Session) string { return s.StudentID })
	out := []models.Student{}
	for _, s := range f.items {
		if engaged[s.ID] || (len(ids) > 0 && !want[s.ID]) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]models.Student(nil), f.items...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	student.ID = fmt.Sprintf("s%d", len(f.items)+1)
	f.items = append(f.items, *student)
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.items {
		if f.items[i].ID == student.ID {
			f.items[i] = *student
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakePeerRepo struct {
	items    []models.Peer
	findErr  error
	listErr  error
	writeErr error
	domain   string
	sessions *fakeSessionRepo
}

func (f *fakePeerRepo) FindByID(ctx context.Context, id string) (*models.Peer, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			p := f.items[i]
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePeerRepo) ListAll(ctx context.Context) ([]models.Peer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Peer(nil), f.items...), nil
}

func (f *fakePeerRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Peer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := toSet(ids)
	out := []models.Peer{}
	for _, p := range f.items {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePeerRepo) ListUnmatched(ctx context.Context, ids []string) ([]models.Peer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := toSet(ids)
	engaged := f.sessions.engaged(func(s *models.Session) string { return s.PeerID })
	out := []models.Peer{}
	for _, p := range f.items {
		if engaged[p.ID] || (len(ids) > 0 && !want[p.ID]) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePeerRepo) List(ctx context.Context, domain string) ([]models.Peer, error) {
	f.domain = domain
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Peer(nil), f.items...), nil
}

func (f *fakePeerRepo) Create(ctx context.Context, peer *models.Peer) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	peer.ID = fmt.Sprintf("p%d", len(f.items)+1)
	f.items = append(f.items, *peer)
	return nil
}

func (f *fakePeerRepo) Update(ctx context.Context, peer *models.Peer) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.items {
		if f.items[i].ID == peer.ID {
			f.items[i] = *peer
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakePeerRepo) Delete(ctx context.Context, id string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// fakeSessionRepo stores sessions in memory and can fail writes for chosen pairs.
type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	order     []string
	seq       int
	failPairs map[string]bool
	createErr error
	updateErr error
	listErr   error
	updates   []models.SessionUpdate
	listLimit int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.Session{}, failPairs: map[string]bool{}}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.failPairs[session.StudentID+"/"+session.PeerID] {
		return fmt.Errorf("insert rejected")
	}
	f.seq++
	session.ID = fmt.Sprintf("sess-%d", f.seq)
	now := time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	session.CreatedAt = now
	session.UpdatedAt = now
	stored := *session
	f.sessions[session.ID] = &stored
	f.order = append(f.order, session.ID)
	return nil
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	s, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: *s, StudentName: "student " + s.StudentID, PeerName: "peer " + s.PeerID}, nil
}

func (f *fakeSessionRepo) UpdateFields(ctx context.Context, id string, update models.SessionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.updates = append(f.updates, update)
	if update.Status != nil {
		s.Status = *update.Status
	}
	if update.ScheduledAt != nil {
		s.ScheduledAt = *update.ScheduledAt
	}
	if update.Remarks != nil {
		s.Remarks = *update.Remarks
	}
	if update.Topic != nil {
		s.Topic = *update.Topic
	}
	s.UpdatedAt = update.UpdatedAt
	return nil
}

func (f *fakeSessionRepo) List(ctx context.Context, limit int) ([]models.SessionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.SessionDetail, 0, len(f.sessions))
	for _, id := range f.order {
		out = append(out, models.SessionDetail{Session: *f.sessions[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// engaged collects the IDs picked by key from sessions that are not yet terminal.
func (f *fakeSessionRepo) engaged(key func(*models.Session) string) map[string]bool {
	out := map[string]bool{}
	if f == nil {
		return out
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if !s.Status.Terminal() {
			out[key(s)] = true
		}
	}
	return out
}

func (f *fakeSessionRepo) put(session models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := session
	f.sessions[session.ID] = &stored
	f.order = append(f.order, session.ID)
}

type fakeLocker struct {
	mu         sync.Mutex
	held       bool
	acquireErr error
	released   int
	extended   int
	lost       bool
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token", true, nil
}

func (l *fakeLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lost {
		return false, nil
	}
	l.extended++
	return true, nil
}

func (l *fakeLocker) extensions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.extended
}

func (l *fakeLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released++
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
