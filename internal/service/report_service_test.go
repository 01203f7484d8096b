package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	appErrors "github.com/noah-isme/student-attendance-api/pkg/errors"
	"github.com/noah-isme/student-attendance-api/pkg/export"
)

type stubStudentLister struct {
	students []models.Student
	err      error
}

func (s *stubStudentLister) List(ctx context.Context) ([]models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.students, nil
}

func reportFixture() []models.Student {
	return []models.Student{
		{
			StudentID:   "s-1",
			StudentName: "Ada Lovelace",
			Sessions: []models.Session{
				{ClassName: "math", LoginTime: 1_700_000_000_000, LogoutTime: 1_700_000_060_000, TotalTime: 60},
				{ClassName: "science", LoginTime: 1_700_000_120_000, LogoutTime: 1_700_000_120_000},
			},
		},
	}
}

func newReportService(lister *stubStudentLister) *ReportService {
	return NewReportService(lister, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestAttendanceReportCSV(t *testing.T) {
	svc := newReportService(&stubStudentLister{students: reportFixture()})

	payload, contentType, err := svc.AttendanceReport(context.Background(), ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Student ID", "Student Name", "Class", "Login", "Logout", "Total Seconds"}, records[0])
	assert.Equal(t, "s-1", records[1][0])
	assert.Equal(t, "math", records[1][2])
	assert.Equal(t, "60", records[1][5])

	// Still-open sessions have no logout to report.
	assert.Equal(t, "science", records[2][2])
	assert.Empty(t, records[2][4])
	assert.Equal(t, "0", records[2][5])
}

func TestAttendanceReportPDF(t *testing.T) {
	svc := newReportService(&stubStudentLister{students: reportFixture()})

	payload, contentType, err := svc.AttendanceReport(context.Background(), ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestAttendanceReportUnsupportedFormat(t *testing.T) {
	svc := newReportService(&stubStudentLister{students: reportFixture()})

	_, _, err := svc.AttendanceReport(context.Background(), ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceReportEmptyLedger(t *testing.T) {
	svc := newReportService(&stubStudentLister{})

	payload, _, err := svc.AttendanceReport(context.Background(), ReportFormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
