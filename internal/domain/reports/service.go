package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	store      *Store
	reportsDir string
}

func NewService(store *Store, reportsDir string) *Service {
	return &Service{store: store, reportsDir: reportsDir}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.store.Summary(ctx)
}

// TrainingReportPDF renders a user's training record to a PDF file and
// returns its path.
func (s *Service) TrainingReportPDF(ctx context.Context, userID string) (string, error) {
	name, email, err := s.store.userHeader(ctx, userID)
	if err != nil {
		return "", err
	}
	courses, err := s.store.trainingRows(ctx, userID)
	if err != nil {
		return "", err
	}
	badges, err := s.store.badgeRows(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.reportsDir, "training-"+userID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Training Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", email))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Courses")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	if len(courses) == 0 {
		pdf.Cell(0, 7, "No enrollments on record.")
		pdf.Ln(7)
	}
	for _, c := range courses {
		status := fmt.Sprintf("%d%%", c.Progress)
		if c.CompletedAt != nil {
			status = "completed " + c.CompletedAt.Format("2006-01-02")
		}
		pdf.Cell(0, 7, fmt.Sprintf("%s  (enrolled %s, %s)", c.CourseName, c.EnrolledAt.Format("2006-01-02"), status))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Badges")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	if len(badges) == 0 {
		pdf.Cell(0, 7, "No badges earned yet.")
		pdf.Ln(7)
	}
	for _, b := range badges {
		pdf.Cell(0, 7, fmt.Sprintf("%s (%s)  earned %s", b.Title, b.BadgeType, b.DateEarned.Format("2006-01-02")))
		pdf.Ln(7)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
