package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"palestra/internal/core"
	applog "palestra/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const revenueSheet = "Revenue"

// handleRevenueExport serves the revenue report for a period as a workbook.
func (s *Server) handleRevenueExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := core.ParseDate(strings.TrimSpace(q.Get("period_start")))
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("period_start: %w", err))
		return
	}
	end, err := core.ParseDate(strings.TrimSpace(q.Get("period_end")))
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("period_end: %w", err))
		return
	}

	report, err := s.service.GenerateRevenueReport(r.Context(), core.RevenueReportInput{PeriodStart: start, PeriodEnd: end})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	f, err := renderRevenueWorkbook(report)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("render revenue workbook: %w", err))
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("revenue_%s_%s.xlsx", start, end)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(w); err != nil {
		// Headers are already out.
		slog.ErrorContext(r.Context(), "Failed to write revenue workbook", applog.FieldError, err)
	}
}

// renderRevenueWorkbook lays the report out as label/value rows followed by
// the per-method breakdown. Amounts are numeric cells in currency units.
func renderRevenueWorkbook(report core.RevenueReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", revenueSheet); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]any{
		{"Period start", report.PeriodStart.String()},
		{"Period end", report.PeriodEnd.String()},
		{"Total revenue", amount(report.TotalRevenue)},
		{"Membership revenue", amount(report.MembershipRevenue)},
		{"Other revenue", amount(report.OtherRevenue)},
		{"Payment count", report.PaymentCount},
		{},
		{"Payment method", "Amount"},
	}
	for _, m := range core.PaymentMethods {
		rows = append(rows, []any{string(m), amount(report.BreakdownByMethod[m])})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(revenueSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetColWidth(revenueSheet, "A", "A", 22); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
