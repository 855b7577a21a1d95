package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
)

// ── sqlite backed engine ──

func newSQLiteRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
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
	return repository.NewRepository(db), db
}

func createStoredCase(t *testing.T, repo *repository.Repository, studentID uint, dept *model.Department, phase int, stage model.Stage, uploaded bool) *model.Process {
	t.Helper()
	p := model.NewProcess(studentID, dept.ID, 900, []uint{901, 902}, "Title", "Abstract")
	p.PhaseID = phase
	p.CurrentStage = stage
	if uploaded {
		info, _ := p.ThesisInfoFor(model.StagePreliminary)
		for i := range info.Files {
			id := fmt.Sprintf("file-%d-%d", studentID, i)
			info.Files[i].FileID = &id
		}
	}
	if err := repo.Process.Create(context.Background(), p); err != nil {
		t.Fatalf("create process: %v", err)
	}
	return p
}

func phaseSnapshot(t *testing.T, db *gorm.DB) map[uint]model.Process {
	t.Helper()
	var processes []model.Process
	if err := db.Find(&processes).Error; err != nil {
		t.Fatalf("load processes: %v", err)
	}
	out := make(map[uint]model.Process, len(processes))
	for _, p := range processes {
		out[p.ID] = p
	}
	return out
}

func TestTransitionService_ConcurrentPhasesLeaveOthersAlone(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()
	dept := &model.Department{Name: "Computer Science"}
	if err := repo.Department.Create(ctx, dept); err != nil {
		t.Fatalf("create department: %v", err)
	}

	var (
		complete, incomplete, atFive, atEight []uint
		student                               uint
	)
	next := func() uint { student++; return student }
	for i := 0; i < 4; i++ {
		complete = append(complete, createStoredCase(t, repo, next(), dept, 2, model.StagePreliminary, true).ID)
	}
	for i := 0; i < 2; i++ {
		incomplete = append(incomplete, createStoredCase(t, repo, next(), dept, 2, model.StagePreliminary, false).ID)
	}
	for i := 0; i < 5; i++ {
		atFive = append(atFive, createStoredCase(t, repo, next(), dept, 5, model.StageMain, false).ID)
	}
	for i := 0; i < 3; i++ {
		atEight = append(atEight, createStoredCase(t, repo, next(), dept, 8, model.StageRevision, false).ID)
	}
	before := phaseSnapshot(t, db)

	engine := NewTransitionService(repo.Cases, NewLocalLocker(), nil, zap.NewNop())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		totals = map[int]int{}
	)
	for i := 0; i < 3; i++ {
		for _, from := range []int{2, 5} {
			wg.Add(1)
			go func(from int) {
				defer wg.Done()
				n, err := engine.ApplyPhase(ctx, from, model.TriggerManual)
				if err != nil {
					t.Errorf("ApplyPhase(%d): %v", from, err)
					return
				}
				mu.Lock()
				totals[from] += n
				mu.Unlock()
			}(from)
		}
	}
	wg.Wait()

	if totals[2] != len(complete) || totals[5] != len(atFive) {
		t.Errorf("expected each process advanced once, got %v", totals)
	}

	after := phaseSnapshot(t, db)
	expect := func(ids []uint, phase int, stage model.Stage) {
		t.Helper()
		for _, id := range ids {
			if got := after[id]; got.PhaseID != phase || got.CurrentStage != stage {
				t.Errorf("process %d: expected %d %s, got %d %s", id, phase, stage, got.PhaseID, got.CurrentStage)
			}
		}
	}
	expect(complete, 3, model.StagePreliminary)
	expect(incomplete, 2, model.StagePreliminary)
	expect(atFive, 6, model.StageMain)
	for _, id := range atEight {
		if got, was := after[id], before[id]; got.PhaseID != 8 || got.CurrentStage != model.StageRevision || !got.UpdatedAt.Equal(was.UpdatedAt) {
			t.Errorf("phase 8 process %d must be untouched, got %d %s", id, got.PhaseID, got.CurrentStage)
		}
	}
}

func TestTransitionService_PhaseNeverDecreases(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()
	dept := &model.Department{Name: "Electrical Engineering", ModificationFlag: true}
	if err := repo.Department.Create(ctx, dept); err != nil {
		t.Fatalf("create department: %v", err)
	}

	var student uint
	for _, seed := range []struct {
		phase    int
		stage    model.Stage
		uploaded bool
	}{
		{2, model.StagePreliminary, true},
		{2, model.StagePreliminary, false},
		{3, model.StagePreliminary, false},
		{5, model.StageMain, false},
		{6, model.StageMain, false},
		{8, model.StageRevision, false},
		{9, model.StageMain, false},
	} {
		student++
		createStoredCase(t, repo, student, dept, seed.phase, seed.stage, seed.uploaded)
	}

	engine := NewTransitionService(repo.Cases, NewLocalLocker(), nil, zap.NewNop())
	prev := phaseSnapshot(t, db)

	// two sweeps over every rule, newest phase first and then oldest first
	order := []int{9, 8, 7, 6, 5, 4, 3, 2, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, from := range order {
		if _, err := engine.ApplyPhase(ctx, from, model.TriggerScheduler); err != nil {
			t.Fatalf("ApplyPhase(%d): %v", from, err)
		}
		cur := phaseSnapshot(t, db)
		for id, p := range cur {
			if p.PhaseID < prev[id].PhaseID {
				t.Fatalf("after applying %d process %d went back from %d to %d", from, id, prev[id].PhaseID, p.PhaseID)
			}
			if p.PhaseID != prev[id].PhaseID && prev[id].PhaseID != from {
				t.Errorf("applying %d moved process %d from phase %d", from, id, prev[id].PhaseID)
			}
		}
		prev = cur
	}
}
