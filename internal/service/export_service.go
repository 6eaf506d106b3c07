package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/models"
	"github.com/noah-isme/mission-hub-api/pkg/export"
	"github.com/noah-isme/mission-hub-api/pkg/storage"
)

type reportingRepository interface {
	CompletionRows(ctx context.Context, missionID, assignmentID string) ([]models.CompletionReportRow, error)
	RosterRows(ctx context.Context, missionID string) ([]models.RosterReportRow, error)
	MentorWorkloadRows(ctx context.Context, missionID string) ([]models.MentorWorkloadRow, error)
	SummaryMetrics(ctx context.Context, missionID string) (*models.MissionSummaryMetrics, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	reporting reportingRepository
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(reporting reportingRepository, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reporting: reporting,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	missionPart := sanitizeFilename(job.Params.MissionID)
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), missionPart, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeCompletions:
		return s.buildCompletionsDataset(ctx, job.Params)
	case models.ReportTypeRoster:
		return s.buildRosterDataset(ctx, job.Params)
	case models.ReportTypeMentorWorkload:
		return s.buildMentorWorkloadDataset(ctx, job.Params)
	case models.ReportTypeSummary:
		return s.buildSummaryDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildCompletionsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.reporting.CompletionRows(ctx, params.MissionID, deref(params.AssignmentID))
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Assignment":   row.AssignmentTitle,
			"Email":        row.Email,
			"Completed At": row.AddedAt.UTC().Format(time.RFC3339),
			"Recorded By":  row.AddedBy,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Assignment", "Email", "Completed At", "Recorded By"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Assignment Completions %s", params.MissionID)
	return dataset, title, nil
}

func (s *ExportService) buildRosterDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.reporting.RosterRows(ctx, params.MissionID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Student ID":     row.StudentID,
			"Name":           row.FullName,
			"Email":          row.Email,
			"Status":         row.Status,
			"Group":          deref(row.GroupName),
			"Primary Mentor": deref(row.PrimaryMentor),
			"Joined At":      formatReportTime(row.JoinedAt),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Email", "Status", "Group", "Primary Mentor", "Joined At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Mission Roster %s", params.MissionID)
	return dataset, title, nil
}

func (s *ExportService) buildMentorWorkloadDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	rows, err := s.reporting.MentorWorkloadRows(ctx, params.MissionID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Mentor ID":       row.MentorID,
			"Name":            row.MentorName,
			"Role":            row.Role,
			"Status":          string(row.Status),
			"Assigned":        fmt.Sprintf("%d", row.AssignedCount),
			"Capacity":        fmt.Sprintf("%d", row.MaxStudents),
			"Utilization (%)": fmt.Sprintf("%.2f", row.Utilization()),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Mentor ID", "Name", "Role", "Status", "Assigned", "Capacity", "Utilization (%)"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Mentor Workload %s", params.MissionID)
	return dataset, title, nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	metrics, err := s.reporting.SummaryMetrics(ctx, params.MissionID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Enrolled Students", "Value": fmt.Sprintf("%d", metrics.StudentCount)},
		{"Metric": "Mentors", "Value": fmt.Sprintf("%d", metrics.MentorCount)},
		{"Metric": "Mentorship Groups", "Value": fmt.Sprintf("%d", metrics.GroupCount)},
		{"Metric": "Assignments", "Value": fmt.Sprintf("%d", metrics.AssignmentCount)},
		{"Metric": "Published Assignments", "Value": fmt.Sprintf("%d", metrics.PublishedAssignments)},
		{"Metric": "Recorded Completions", "Value": fmt.Sprintf("%d", metrics.CompletionCount)},
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Mission Summary %s", metrics.MissionName)
	return dataset, title, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
