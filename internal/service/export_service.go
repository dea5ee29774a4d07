package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/pkg/export"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportBookingSource interface {
	ListViewsByTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error)
}

// ExportDocument is a rendered report ready for download.
type ExportDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders booking and roster reports as CSV or PDF downloads.
type ExportService struct {
	bookings exportBookingSource
	roster   *RosterService
	csv      csvRenderer
	pdf      pdfRenderer
	enabled  bool
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(bookings exportBookingSource, roster *RosterService, enabled bool, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{bookings: bookings, roster: roster, csv: csv, pdf: pdf, enabled: enabled, logger: logger}
}

// BookingsReport renders all bookings for one teacher.
func (s *ExportService) BookingsReport(ctx context.Context, teacherID string, format ExportFormat) (*ExportDocument, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	views, err := s.bookings.ListViewsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	dataset := export.Dataset{
		Headers: []string{"Booking ID", "Student", "Slot", "Status", "Created At"},
	}
	for _, view := range views {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Booking ID": view.ID,
			"Student":    view.Student.Name,
			"Slot":       view.SlotLabel,
			"Status":     string(view.Status),
			"Created At": view.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return s.render(dataset, "bookings-"+teacherID, "Teacher Bookings", format)
}

// RosterReport renders the teacher's student roster with note counts.
func (s *ExportService) RosterReport(ctx context.Context, teacherID string, format ExportFormat) (*ExportDocument, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	entries, err := s.roster.ListStudents(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Registration Number", "Grade", "Notes", "Bookings", "Linked At"},
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":             entry.Student.Name,
			"Registration Number": entry.Student.RegistrationNumber,
			"Grade":               entry.Student.Grade,
			"Notes":               fmt.Sprintf("%d", len(entry.Notes)),
			"Bookings":            fmt.Sprintf("%d", len(entry.History)),
			"Linked At":           entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return s.render(dataset, "roster-"+teacherID, "Student Roster", format)
}

func (s *ExportService) render(dataset export.Dataset, baseName, title string, format ExportFormat) (*ExportDocument, error) {
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportDocument{Filename: baseName + ".csv", ContentType: "text/csv", Data: data}, nil
	case ExportPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportDocument{Filename: baseName + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
