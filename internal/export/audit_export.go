package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/lexcms/internal/repository"
	"github.com/rpattn/lexcms/internal/searchreplace"
)

// Service builds spreadsheet exports of an operation's audit trail.
// Operators reconcile partial execute failures against this, since the
// response only carries aggregate counts.
type Service struct {
	audit repository.AuditRepository
}

// NewService creates an audit export service.
func NewService(audit repository.AuditRepository) *Service {
	return &Service{audit: audit}
}

var auditHeaders = []string{
	"Record ID", "Operation ID", "Page ID", "Field Path",
	"Old Value", "New Value", "Performed By", "Created At",
	"Rolled Back", "Rolled Back At",
}

// WriteOperationXLSX streams one operation's audit records as a workbook.
func (s *Service) WriteOperationXLSX(ctx context.Context, operationID uuid.UUID, out io.Writer) error {
	records, err := s.audit.ListByOperation(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to load audit records: %w", err)
	}
	if len(records) == 0 {
		return searchreplace.ErrOperationNotFound
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for col, header := range auditHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, record := range records {
		rolledBackAt := ""
		if record.RolledBackAt != nil {
			rolledBackAt = record.RolledBackAt.Format(time.RFC3339)
		}
		values := []any{
			record.ID.String(),
			record.OperationID.String(),
			record.PageID.String(),
			record.FieldPath,
			record.OldValue,
			record.NewValue,
			record.PerformedBy,
			record.CreatedAt.Format(time.RFC3339),
			record.RolledBack,
			rolledBackAt,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := file.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// HTTPHandler serves GET /api/search-replace/operations/{id}/export.
func (s *Service) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		operationID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "id must be a valid UUID", http.StatusBadRequest)
			return
		}

		// Build fully before writing headers so not-found can still 404.
		var buf bytes.Buffer
		if err := s.WriteOperationXLSX(r.Context(), operationID, &buf); err != nil {
			if errors.Is(err, searchreplace.ErrOperationNotFound) {
				http.Error(w, "operation not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "search-replace-"+operationID.String()+".xlsx"))
		_, _ = buf.WriteTo(w)
	})
}
