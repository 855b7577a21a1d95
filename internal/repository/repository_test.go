package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
)

// ── test setup ──

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Phase{},
		&model.Department{},
		&model.Process{},
		&model.ProcessReviewer{},
		&model.ThesisInfo{},
		&model.ThesisFile{},
		&model.Review{},
		&model.PhaseTransitionLog{},
	)
	if err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedPhases(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for id := model.PhaseFirst; id <= model.PhaseLast; id++ {
		p := model.Phase{
			ID:    id,
			Title: fmt.Sprintf("phase %d", id),
			Start: base.AddDate(0, 0, 7*(id-1)),
			End:   base.AddDate(0, 0, 7*id),
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed phase %d: %v", id, err)
		}
	}
}

func seedProcess(t *testing.T, repo *Repository, studentID uint, dept *model.Department, phaseID int) *model.Process {
	t.Helper()
	p := model.NewProcess(studentID, dept.ID, 900, []uint{901, 902}, "Title", "Abstract")
	p.PhaseID = phaseID
	if err := repo.Process.Create(context.Background(), p); err != nil {
		t.Fatalf("create process: %v", err)
	}
	return p
}

func newDept(t *testing.T, repo *Repository, flag bool) *model.Department {
	t.Helper()
	d := &model.Department{Name: fmt.Sprintf("dept-%v", flag), ModificationFlag: flag}
	if err := repo.Department.Create(context.Background(), d); err != nil {
		t.Fatalf("create department: %v", err)
	}
	return d
}

// ── Process ──

func TestProcessRepo_CreateBuildsTree(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)

	created := seedProcess(t, repo, 2026001, dept, model.PhaseFirst)

	got, err := repo.Process.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Department == nil || got.Department.ID != dept.ID {
		t.Fatal("department should be preloaded")
	}
	if len(got.Reviewers) != 2 {
		t.Errorf("expected 2 reviewers, got %d", len(got.Reviewers))
	}
	if len(got.ThesisInfos) != 2 {
		t.Fatalf("expected 2 thesis records, got %d", len(got.ThesisInfos))
	}
	for _, info := range got.ThesisInfos {
		if len(info.Files) != 2 {
			t.Errorf("%s: expected 2 file slots, got %d", info.Stage, len(info.Files))
		}
		if len(info.Reviews) != 3 {
			t.Errorf("%s: expected 3 reviews, got %d", info.Stage, len(info.Reviews))
		}
	}
}

func TestProcessRepo_SetPhase(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	p := seedProcess(t, repo, 2026002, dept, model.PhaseFirst)
	ctx := context.Background()

	if err := repo.Process.SetPhase(ctx, p.ID, 1, 2, "admin"); err != nil {
		t.Fatalf("SetPhase 1→2: %v", err)
	}
	if err := repo.Process.SetPhase(ctx, p.ID, 1, 2, "admin"); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("stale from should fail with ErrOptimisticLock, got %v", err)
	}
	if err := repo.Process.SetPhase(ctx, p.ID, 2, 2, "admin"); !errors.Is(err, pkgerrors.ErrPhaseRollback) {
		t.Errorf("same phase should fail with ErrPhaseRollback, got %v", err)
	}
}

func TestProcessRepo_SetLockNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	err := repo.Process.SetLock(context.Background(), 4242, true, "admin")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

// ── CaseStore ──

func TestCaseStore_FindProcessesFilter(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, true)
	ctx := context.Background()

	a := seedProcess(t, repo, 1, dept, 2)
	seedProcess(t, repo, 2, dept, 2)
	seedProcess(t, repo, 3, dept, 3)
	if err := repo.Process.SetLock(ctx, a.ID, true, "admin"); err != nil {
		t.Fatalf("SetLock: %v", err)
	}

	all, err := repo.Cases.FindProcesses(ctx, 2, ProcessFilter{})
	if err != nil {
		t.Fatalf("FindProcesses: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 processes at phase 2, got %d", len(all))
	}
	if all[0].Department == nil || !all[0].Department.ModificationFlag {
		t.Error("department should be preloaded")
	}
	if len(all[0].ThesisInfos) == 0 || len(all[0].ThesisInfos[0].Files) == 0 {
		t.Error("thesis files should be preloaded")
	}

	unlocked := false
	open, err := repo.Cases.FindProcesses(ctx, 2, ProcessFilter{Locked: &unlocked})
	if err != nil {
		t.Fatalf("FindProcesses: %v", err)
	}
	if len(open) != 1 || open[0].ID == a.ID {
		t.Errorf("locked process should be filtered out, got %+v", open)
	}
}

func TestCaseStore_BulkUpdatePhase(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	ctx := context.Background()

	a := seedProcess(t, repo, 1, dept, 3)
	b := seedProcess(t, repo, 2, dept, 3)

	stage := model.StageMain
	if err := repo.Cases.BulkUpdatePhase(ctx, []uint{a.ID, b.ID}, 3, 4, &stage); err != nil {
		t.Fatalf("BulkUpdatePhase: %v", err)
	}

	moved, err := repo.Cases.FindProcesses(ctx, 4, ProcessFilter{})
	if err != nil {
		t.Fatalf("FindProcesses: %v", err)
	}
	if len(moved) != 2 {
		t.Fatalf("expected 2 processes at phase 4, got %d", len(moved))
	}
	for _, p := range moved {
		if p.CurrentStage != model.StageMain {
			t.Errorf("process %d: expected MAIN, got %s", p.ID, p.CurrentStage)
		}
	}

	// already advanced: nothing matches phase 3 any more
	err = repo.Cases.BulkUpdatePhase(ctx, []uint{a.ID}, 3, 4, nil)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("second advance should fail with ErrOptimisticLock, got %v", err)
	}

	if err := repo.Cases.BulkUpdatePhase(ctx, []uint{a.ID}, 4, 3, nil); !errors.Is(err, pkgerrors.ErrPhaseRollback) {
		t.Errorf("backwards move should fail with ErrPhaseRollback, got %v", err)
	}
}

func TestCaseStore_BulkUpdatePhasePartialMatchWritesNothing(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	ctx := context.Background()

	a := seedProcess(t, repo, 1, dept, 5)
	b := seedProcess(t, repo, 2, dept, 4)

	err := repo.Cases.BulkUpdatePhase(ctx, []uint{a.ID, b.ID}, 5, 6, nil)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock, got %v", err)
	}

	got, err := repo.Process.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PhaseID != 5 {
		t.Errorf("partial match must roll back, process is at %d", got.PhaseID)
	}
}

func TestCaseStore_BulkUpdatePhaseSkipsLocked(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	ctx := context.Background()

	free := seedProcess(t, repo, 1, dept, 9)
	locked := seedProcess(t, repo, 2, dept, 9)
	if err := repo.Process.SetLock(ctx, locked.ID, true, "admin"); err != nil {
		t.Fatalf("SetLock: %v", err)
	}

	err := repo.Cases.BulkUpdatePhase(ctx, []uint{locked.ID}, 9, 10, nil)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("locked process must not match, got %v", err)
	}

	err = repo.Cases.BulkUpdatePhase(ctx, []uint{free.ID, locked.ID}, 9, 10, nil)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("batch with a locked process must fail, got %v", err)
	}

	for _, id := range []uint{free.ID, locked.ID} {
		got, err := repo.Process.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.PhaseID != 9 {
			t.Errorf("process %d: expected to stay at 9, got %d", id, got.PhaseID)
		}
	}
}

func TestCaseStore_OpenRevisionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, true)
	ctx := context.Background()

	p := seedProcess(t, repo, 1, dept, 6)

	for i := 0; i < 2; i++ {
		if err := repo.Cases.OpenRevision(ctx, []uint{p.ID}); err != nil {
			t.Fatalf("OpenRevision #%d: %v", i+1, err)
		}
	}

	got, err := repo.Process.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.ThesisInfos) != 3 {
		t.Fatalf("expected 3 thesis records, got %d", len(got.ThesisInfos))
	}
	info, ok := got.ThesisInfoFor(model.StageRevision)
	if !ok {
		t.Fatal("REVISION record should exist")
	}
	if len(info.Files) != 1 || info.Files[0].Type != model.FileRevisionReport {
		t.Errorf("expected a REVISION_REPORT slot, got %+v", info.Files)
	}
	if info.Title != "Title" {
		t.Errorf("title should carry over, got %q", info.Title)
	}
}

func TestCaseStore_WithinTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	ctx := context.Background()
	p := seedProcess(t, repo, 1, dept, 9)

	boom := errors.New("boom")
	err := repo.Cases.WithinTx(ctx, func(tx CaseStore) error {
		if err := tx.BulkUpdatePhase(ctx, []uint{p.ID}, 9, 10, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.Process.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PhaseID != 9 {
		t.Errorf("expected rollback to phase 9, got %d", got.PhaseID)
	}
}

// ── Phase / Review / TransitionLog ──

func TestPhaseRepo_TitleTaken(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	taken, err := repo.Phase.TitleTaken(ctx, "phase 3", 4)
	if err != nil || !taken {
		t.Errorf("phase 3 title should be taken for phase 4, got %v (%v)", taken, err)
	}
	taken, err = repo.Phase.TitleTaken(ctx, "phase 3", 3)
	if err != nil || taken {
		t.Errorf("a phase keeping its own title is not a conflict, got %v (%v)", taken, err)
	}
}

func TestReviewRepo_UpdateAndSummary(t *testing.T) {
	db := newTestDB(t)
	seedPhases(t, db)
	repo := NewRepository(db)
	dept := newDept(t, repo, false)
	ctx := context.Background()
	p := seedProcess(t, repo, 1, dept, 5)

	info := p.ThesisInfos[1]
	r := info.Reviews[0]
	r.ContentStatus = model.StatusPass
	r.PresentationStatus = model.StatusFail
	r.Comment = "slides need work"
	if err := repo.Review.Update(ctx, &r); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Review.UpdateSummary(ctx, info.ID, model.StatusFail); err != nil {
		t.Fatalf("UpdateSummary: %v", err)
	}

	got, err := repo.Review.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PresentationStatus != model.StatusFail || got.Comment != "slides need work" {
		t.Errorf("review not updated: %+v", got)
	}
	if got.ThesisInfo == nil || got.ThesisInfo.Summary != model.StatusFail {
		t.Errorf("summary not updated: %+v", got.ThesisInfo)
	}

	reviews, err := repo.Review.ListByThesisInfo(ctx, info.ID)
	if err != nil {
		t.Fatalf("ListByThesisInfo: %v", err)
	}
	if len(reviews) != 3 || !reviews[2].IsFinal {
		t.Errorf("expected 3 reviews with the final one last, got %d", len(reviews))
	}
}

func TestTransitionLogRepo_ListByPhase(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	to := 4
	for i := 0; i < 3; i++ {
		entry := &model.PhaseTransitionLog{FromPhaseID: 3, ToPhaseID: &to, Trigger: model.TriggerScheduler, Advanced: i, Status: model.TransitionSuccess}
		if err := repo.Cases.RecordTransition(ctx, entry); err != nil {
			t.Fatalf("RecordTransition: %v", err)
		}
	}
	other := &model.PhaseTransitionLog{FromPhaseID: 5, Trigger: model.TriggerManual, Status: model.TransitionNoop}
	if err := repo.Cases.RecordTransition(ctx, other); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}

	logs, err := repo.TransitionLog.ListByPhase(ctx, 3, 2)
	if err != nil {
		t.Fatalf("ListByPhase: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected limit 2, got %d", len(logs))
	}
	if logs[0].Advanced != 2 {
		t.Errorf("newest first expected, got advanced=%d", logs[0].Advanced)
	}
}

func TestRepository_TransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.Department.Create(ctx, &model.Department{Name: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	depts, err := repo.Department.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(depts) != 0 {
		t.Errorf("department insert should be rolled back, got %d rows", len(depts))
	}
}
