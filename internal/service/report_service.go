package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
	"github.com/noah-isme/student-attendance-api/pkg/export"
)

type reportStudentLister interface {
	List(ctx context.Context) ([]models.Student, error)
}

// ReportFormat identifies a supported export encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportService renders the attendance ledger into downloadable files.
type ReportService struct {
	students reportStudentLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(students reportStudentLister, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, csv: csv, pdf: pdf, logger: logger}
}

// AttendanceReport renders every recorded session in the requested
// format and returns the bytes with their content type.
func (s *ReportService) AttendanceReport(ctx context.Context, format ReportFormat) ([]byte, string, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	dataset := buildAttendanceDataset(students)

	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case ReportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Attendance Report")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}

func buildAttendanceDataset(students []models.Student) export.Dataset {
	headers := []string{"Student ID", "Student Name", "Class", "Login", "Logout", "Total Seconds"}
	rows := make([]map[string]string, 0)
	for _, student := range students {
		for _, session := range student.Sessions {
			logout := formatEpochMillis(session.LogoutTime)
			if session.Open() {
				logout = ""
			}
			rows = append(rows, map[string]string{
				"Student ID":    student.StudentID,
				"Student Name":  student.StudentName,
				"Class":         session.ClassName,
				"Login":         formatEpochMillis(session.LoginTime),
				"Logout":        logout,
				"Total Seconds": strconv.FormatFloat(session.TotalTime, 'f', -1, 64),
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatEpochMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
