package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/langchou/evcharge/internal/models"
	"github.com/langchou/evcharge/internal/repository"
)

// gate 让前 n 次调用互相等待后再继续，用于构造并发交错
type gate struct {
	n     int32
	calls atomic.Int32
	wg    sync.WaitGroup
}

func newGate(n int) *gate {
	g := &gate{n: int32(n)}
	g.wg.Add(n)
	return g
}

func (g *gate) wait() {
	if g == nil || g.calls.Add(1) > g.n {
		return
	}
	g.wg.Done()
	g.wg.Wait()
}

type fakeStations struct {
	mu       sync.Mutex
	stations map[int64]*models.Station
	getGate  *gate
}

func newFakeStations(stations ...*models.Station) *fakeStations {
	f := &fakeStations{stations: make(map[int64]*models.Station)}
	for _, s := range stations {
		f.stations[s.ID] = s
	}
	return f
}

func (f *fakeStations) GetByID(_ context.Context, id int64) (*models.Station, error) {
	f.getGate.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return nil, fmt.Errorf("get station: %w", repository.ErrNotFound)
	}
	cp := *s
	cp.Ports = append(models.Ports(nil), s.Ports...)
	return &cp, nil
}

func (f *fakeStations) List(_ context.Context, _ models.StationFilter) ([]*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Station
	for _, s := range f.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStations) UpdatePortStatus(_ context.Context, stationID int64, portID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[stationID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range s.Ports {
		if s.Ports[i].ID == portID {
			s.Ports[i].Status = status
		}
	}
	return nil
}

func (f *fakeStations) ReservePort(_ context.Context, stationID int64, portID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[stationID]
	if !ok {
		return repository.ErrPortTaken
	}
	for i := range s.Ports {
		if s.Ports[i].ID == portID && s.Ports[i].Status == models.StatusAvailable {
			s.Ports[i].Status = models.StatusBusy
			return nil
		}
	}
	return fmt.Errorf("reserve port: %w", repository.ErrPortTaken)
}

func (f *fakeStations) addPort(stationID int64, p models.Port) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stations[stationID].Ports = append(f.stations[stationID].Ports, p)
}

func (f *fakeStations) portStatus(stationID int64, portID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, _ := f.stations[stationID].Ports.Find(portID)
	return p.Status
}

type fakeVehicles struct {
	vehicles map[int64]*models.Vehicle
}

func (f *fakeVehicles) GetByID(_ context.Context, id int64) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicles) ListByUserID(_ context.Context, userID int64) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.ChargingSession
	progress int
	getGate  *gate
}

func newFakeSessions(sessions ...*models.ChargingSession) *fakeSessions {
	f := &fakeSessions{sessions: make(map[string]*models.ChargingSession)}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeSessions) Create(_ context.Context, s *models.ChargingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.UserID == s.UserID && existing.EndTime == nil {
			return fmt.Errorf("insert charging session: %w", repository.ErrActiveExists)
		}
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) UpdateProgress(_ context.Context, s *models.ChargingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	f.progress++
	return nil
}

func (f *fakeSessions) Complete(_ context.Context, s *models.ChargingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.sessions[s.ID]; ok && existing.EndTime != nil {
		return fmt.Errorf("complete session: %w", repository.ErrAlreadyEnded)
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (*models.ChargingSession, error) {
	f.getGate.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get session: %w", repository.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) GetActiveByUserID(_ context.Context, userID int64) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.EndTime == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get active session: %w", repository.ErrNotFound)
}

func (f *fakeSessions) ListActive(_ context.Context) ([]*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ChargingSession
	for _, s := range f.sessions {
		if s.EndTime == nil {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessions) ListByUserID(_ context.Context, userID int64, limit, offset int) ([]*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ChargingSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSessions) ListByStationID(_ context.Context, stationID int64, limit, offset int) ([]*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ChargingSession
	for _, s := range f.sessions {
		if s.StationID == stationID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSessions) CountByStationID(_ context.Context, stationID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.StationID == stationID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) CountByUserID(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) GetStats(_ context.Context, userID int64) (float64, float64, float64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var energy, cost, duration float64
	var n int64
	for _, s := range f.sessions {
		if s.UserID != userID || (s.Status != models.SessionCompleted && s.Status != models.SessionStopped) {
			continue
		}
		energy += s.EnergyDeliveredKwh
		if s.Cost != nil {
			cost += *s.Cost
		}
		duration += s.DurationMin
		n++
	}
	if n == 0 {
		return 0, 0, 0, 0, nil
	}
	return energy, cost, duration / float64(n), n, nil
}

func (f *fakeSessions) get(id string) *models.ChargingSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.sessions[id]
	return &cp
}

type fakeTransactions struct {
	mu  sync.Mutex
	txs []*models.Transaction
}

func (f *fakeTransactions) Create(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = int64(len(f.txs) + 1)
	f.txs = append(f.txs, t)
	return nil
}

func (f *fakeTransactions) ListByUserID(_ context.Context, userID int64, _, _ int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, t := range f.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) all() []*models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Transaction(nil), f.txs...)
}

type fakePublisher struct {
	mu        sync.Mutex
	updates   []string
	completed []string
}

func (p *fakePublisher) BroadcastSessionUpdate(sessionID string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, sessionID)
}

func (p *fakePublisher) BroadcastSessionComplete(sessionID string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, sessionID)
}

func (p *fakePublisher) completedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.completed)
}

func (p *fakePublisher) updateCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}
