package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
)

// ── export errors ──

var (
	ErrExportEmpty        = errors.New("no processes at this phase")
	ErrExportGenerateFail = errors.New("failed to generate spreadsheet")
)

// ExportService spreadsheet exports for the graduate office.
type ExportService interface {
	// ExportPhaseRoster writes every process waiting at phaseID, with the
	// stored summary of each stage, as an .xlsx workbook.
	ExportPhaseRoster(ctx context.Context, phaseID int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var rosterHeader = []string{
	"Process", "Student", "Department", "Stage", "Locked",
	"PRELIMINARY", "MAIN", "REVISION", "Current upload",
}

const rosterSheet = "Roster"

func (s *exportService) ExportPhaseRoster(ctx context.Context, phaseID int) (*bytes.Buffer, string, error) {
	phase, err := s.repo.Phase.GetByID(ctx, phaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPhaseNotFound
		}
		s.logger.Error("get phase for export", zap.Int("phase", phaseID), zap.Error(err))
		return nil, "", err
	}

	processes, err := s.repo.Process.ListByPhase(ctx, phaseID, repository.ProcessFilter{})
	if err != nil {
		s.logger.Error("list processes for export", zap.Int("phase", phaseID), zap.Error(err))
		return nil, "", err
	}
	if len(processes) == 0 {
		return nil, "", ErrExportEmpty
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(rosterSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(rosterSheet, "A", "B", 12)
	f.SetColWidth(rosterSheet, "C", "C", 28)
	f.SetColWidth(rosterSheet, "D", "I", 15)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(rosterSheet, "A1", fmt.Sprintf("Phase %d: %s", phase.ID, phase.Title))
	f.MergeCell(rosterSheet, "A1", cell(colName(len(rosterHeader)-1), 1))
	f.SetCellStyle(rosterSheet, "A1", "A1", headerStyle)

	for i, title := range rosterHeader {
		f.SetCellValue(rosterSheet, cell(colName(i), 2), title)
	}
	f.SetCellStyle(rosterSheet, "A2", cell(colName(len(rosterHeader)-1), 2), headerStyle)

	row := 3
	for i := range processes {
		p := &processes[i]
		dept := ""
		if p.Department != nil {
			dept = p.Department.Name
		}
		values := []interface{}{
			p.ID, p.StudentID, dept, string(p.CurrentStage), yesNo(p.IsLock),
			stageSummary(p, model.StagePreliminary),
			stageSummary(p, model.StageMain),
			stageSummary(p, model.StageRevision),
			currentUpload(p),
		}
		for col, v := range values {
			f.SetCellValue(rosterSheet, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook", zap.Int("phase", phaseID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("phase-%02d-roster.xlsx", phase.ID), nil
}

// ── helpers ──

func stageSummary(p *model.Process, stage model.Stage) string {
	info, ok := p.ThesisInfoFor(stage)
	if !ok {
		return "-"
	}
	return string(info.Summary)
}

func currentUpload(p *model.Process) string {
	info, ok := p.ThesisInfoFor(p.CurrentStage)
	if !ok {
		return "-"
	}
	if info.SubmissionComplete() {
		return "complete"
	}
	return "missing"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
