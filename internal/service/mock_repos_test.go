package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
)

// ── Mock CaseStore ──

// mockCaseStore keeps processes in memory. WithinTx serializes callers and
// restores a snapshot when fn fails.
type mockCaseStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	phases    []model.Phase
	processes map[uint]*model.Process
	reviews   map[uint][]model.Review // by thesis info id
	logs      []model.PhaseTransitionLog
	nextID    uint

	failBulk   error // returned by BulkUpdatePhase when set
	reviewsErr error
	failRecord error
	bulkCalls  int

	// onFind runs under mu after FindProcesses built its result, standing in
	// for a write that commits between the load and the bulk update.
	onFind func(m *mockCaseStore)
}

func newMockCaseStore() *mockCaseStore {
	return &mockCaseStore{
		processes: make(map[uint]*model.Process),
		reviews:   make(map[uint][]model.Review),
		nextID:    1000,
	}
}

func (m *mockCaseStore) id() uint {
	m.nextID++
	return m.nextID
}

// addProcess stores p at phase with ids assigned to its records. Reviews
// are kept in the review table, not on the process.
func (m *mockCaseStore) addProcess(p *model.Process, dept *model.Department) *model.Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.DepartmentID = dept.ID
	p.Department = dept
	for i := range p.ThesisInfos {
		info := &p.ThesisInfos[i]
		info.ID = m.id()
		info.ProcessID = p.ID
		for j := range info.Files {
			info.Files[j].ID = m.id()
			info.Files[j].ThesisInfoID = info.ID
		}
		for j := range info.Reviews {
			info.Reviews[j].ID = m.id()
			info.Reviews[j].ThesisInfoID = info.ID
		}
		m.reviews[info.ID] = append([]model.Review(nil), info.Reviews...)
		info.Reviews = nil
	}
	m.processes[p.ID] = p
	return p
}

func (m *mockCaseStore) process(id uint) model.Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProcess(m.processes[id])
}

func (m *mockCaseStore) setReviews(thesisInfoID uint, content, presentation model.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reviews[thesisInfoID] {
		m.reviews[thesisInfoID][i].ContentStatus = content
		m.reviews[thesisInfoID][i].PresentationStatus = presentation
	}
}

func (m *mockCaseStore) logsFor(from int) []model.PhaseTransitionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PhaseTransitionLog
	for _, l := range m.logs {
		if l.FromPhaseID == from {
			out = append(out, l)
		}
	}
	return out
}

func cloneProcess(p *model.Process) model.Process {
	c := *p
	c.ThesisInfos = make([]model.ThesisInfo, len(p.ThesisInfos))
	for i, info := range p.ThesisInfos {
		info.Files = append([]model.ThesisFile(nil), info.Files...)
		c.ThesisInfos[i] = info
	}
	return c
}

func (m *mockCaseStore) ListPhases(_ context.Context) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Phase(nil), m.phases...), nil
}

func (m *mockCaseStore) FindProcesses(_ context.Context, phaseID int, filter repository.ProcessFilter) ([]model.Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Process
	for _, p := range m.processes {
		if p.PhaseID != phaseID {
			continue
		}
		if filter.Locked != nil && p.IsLock != *filter.Locked {
			continue
		}
		if filter.Stage != "" && p.CurrentStage != filter.Stage {
			continue
		}
		out = append(out, cloneProcess(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if m.onFind != nil {
		m.onFind(m)
	}
	return out, nil
}

func (m *mockCaseStore) BulkUpdatePhase(_ context.Context, ids []uint, from, to int, stage *model.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkCalls++
	if to <= from {
		return pkgerrors.ErrPhaseRollback
	}
	if m.failBulk != nil {
		return m.failBulk
	}
	for _, id := range ids {
		p, ok := m.processes[id]
		if !ok || p.PhaseID != from || p.IsLock {
			return pkgerrors.ErrOptimisticLock
		}
	}
	for _, id := range ids {
		m.processes[id].PhaseID = to
		if stage != nil {
			m.processes[id].CurrentStage = *stage
		}
	}
	return nil
}

func (m *mockCaseStore) GetReviews(_ context.Context, thesisInfoID uint) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reviewsErr != nil {
		return nil, m.reviewsErr
	}
	return append([]model.Review(nil), m.reviews[thesisInfoID]...), nil
}

func (m *mockCaseStore) OpenRevision(_ context.Context, ids []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		p := m.processes[id]
		if _, ok := p.ThesisInfoFor(model.StageRevision); ok {
			continue
		}
		info := model.NewRevisionThesis(p)
		info.ID = m.id()
		m.reviews[info.ID] = info.Reviews
		info.Reviews = nil
		p.ThesisInfos = append(p.ThesisInfos, *info)
	}
	return nil
}

func (m *mockCaseStore) RecordTransition(_ context.Context, entry *model.PhaseTransitionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord != nil {
		return m.failRecord
	}
	entry.ID = m.id()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *mockCaseStore) WithinTx(_ context.Context, fn func(tx repository.CaseStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	processes := make(map[uint]*model.Process, len(m.processes))
	for id, p := range m.processes {
		c := cloneProcess(p)
		processes[id] = &c
	}
	logs := append([]model.PhaseTransitionLog(nil), m.logs...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.processes = processes
		m.logs = logs
		m.mu.Unlock()
		return err
	}
	return nil
}

// ── Mock PhaseRepository ──

type mockPhaseRepo struct {
	phases map[int]*model.Phase
}

func newMockPhaseRepo(phases ...model.Phase) *mockPhaseRepo {
	m := &mockPhaseRepo{phases: make(map[int]*model.Phase)}
	for i := range phases {
		p := phases[i]
		m.phases[p.ID] = &p
	}
	return m
}

func (m *mockPhaseRepo) List(_ context.Context) ([]model.Phase, error) {
	out := make([]model.Phase, 0, len(m.phases))
	for _, p := range m.phases {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPhaseRepo) GetByID(_ context.Context, id int) (*model.Phase, error) {
	if p, ok := m.phases[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPhaseRepo) Update(_ context.Context, phase *model.Phase) error {
	c := *phase
	m.phases[phase.ID] = &c
	return nil
}

func (m *mockPhaseRepo) TitleTaken(_ context.Context, title string, excludeID int) (bool, error) {
	for id, p := range m.phases {
		if id != excludeID && p.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock ProcessRepository ──

type mockProcessRepo struct {
	processes map[uint]*model.Process
}

func newMockProcessRepo() *mockProcessRepo {
	return &mockProcessRepo{processes: make(map[uint]*model.Process)}
}

func (m *mockProcessRepo) Create(_ context.Context, p *model.Process) error {
	if p.ID == 0 {
		p.ID = uint(len(m.processes) + 1)
	}
	m.processes[p.ID] = p
	return nil
}

func (m *mockProcessRepo) GetByID(_ context.Context, id uint) (*model.Process, error) {
	if p, ok := m.processes[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProcessRepo) ListByPhase(_ context.Context, phaseID int, filter repository.ProcessFilter) ([]model.Process, error) {
	var out []model.Process
	for _, p := range m.processes {
		if p.PhaseID != phaseID {
			continue
		}
		if filter.Locked != nil && p.IsLock != *filter.Locked {
			continue
		}
		if filter.Stage != "" && p.CurrentStage != filter.Stage {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockProcessRepo) SetLock(_ context.Context, id uint, lock bool, _ string) error {
	p, ok := m.processes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsLock = lock
	return nil
}

func (m *mockProcessRepo) SetPhase(_ context.Context, id uint, from, to int, _ string) error {
	if to <= from {
		return pkgerrors.ErrPhaseRollback
	}
	p, ok := m.processes[id]
	if !ok || p.PhaseID != from {
		return pkgerrors.ErrOptimisticLock
	}
	p.PhaseID = to
	return nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	reviews   map[uint]*model.Review
	infos     map[uint]*model.ThesisInfo
	updateErr error
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		reviews: make(map[uint]*model.Review),
		infos:   make(map[uint]*model.ThesisInfo),
	}
}

// addThesis stores info and its reviews under sequential ids.
func (m *mockReviewRepo) addThesis(id uint, info *model.ThesisInfo) []uint {
	info.ID = id
	m.infos[id] = info
	var ids []uint
	for i := range info.Reviews {
		r := info.Reviews[i]
		r.ID = id*100 + uint(i) + 1
		r.ThesisInfoID = id
		m.reviews[r.ID] = &r
		ids = append(ids, r.ID)
	}
	info.Reviews = nil
	return ids
}

func (m *mockReviewRepo) GetByID(_ context.Context, id uint) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *r
	c.ThesisInfo = m.infos[r.ThesisInfoID]
	return &c, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	c := *review
	c.ThesisInfo = nil
	m.reviews[review.ID] = &c
	return nil
}

func (m *mockReviewRepo) ListByThesisInfo(_ context.Context, thesisInfoID uint) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ThesisInfoID == thesisInfoID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockReviewRepo) UpdateSummary(_ context.Context, thesisInfoID uint, summary model.Status) error {
	info, ok := m.infos[thesisInfoID]
	if !ok {
		return errors.New("thesis info not found")
	}
	info.Summary = summary
	return nil
}

// ── Mock TransitionLogRepository ──

type mockTransitionLogRepo struct {
	logs []model.PhaseTransitionLog
}

func (m *mockTransitionLogRepo) ListByPhase(_ context.Context, fromPhaseID int, limit int) ([]model.PhaseTransitionLog, error) {
	var out []model.PhaseTransitionLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].FromPhaseID == fromPhaseID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	departments map[uint]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{departments: map[uint]*model.Department{
		1: {ID: 1, Name: "Computer Science", ModificationFlag: false},
		2: {ID: 2, Name: "Electrical Engineering", ModificationFlag: true},
	}}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.ID == 0 {
		dept.ID = uint(len(m.departments) + 1)
	}
	m.departments[dept.ID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id uint) (*model.Department, error) {
	if d, ok := m.departments[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	out := make([]model.Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockDeptRepo) SetModificationFlag(_ context.Context, id uint, required bool, _ string) error {
	d, ok := m.departments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.ModificationFlag = required
	return nil
}
