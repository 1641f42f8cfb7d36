package matrixhandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"appraisal/internal/domain/matrix"
	"appraisal/internal/platform/pdf"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
)

func (h *Handler) handleExportMatrix(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "matrixID")
	if !ok {
		return
	}
	m, err := h.Service.GetMatrix(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, matrixReport(m)); err != nil {
		slog.Error("matrix export failed", "matrixId", id, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(m.Name)+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func matrixReport(m matrix.Matrix) pdf.Report {
	details := [][2]string{
		{"Status", m.Status},
		{"Parameters", strconv.Itoa(len(m.Parameters))},
	}
	if m.Description != "" {
		details = append(details, [2]string{"Description", m.Description})
	}
	if m.ActivatedAt != nil {
		details = append(details, [2]string{"Activated", m.ActivatedAt.Format("2006-01-02")})
	}
	rows := make([][]string, 0, len(m.Parameters))
	for i, p := range m.Parameters {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, p.Category, strconv.Itoa(p.Weightage) + "%"})
	}
	return pdf.Report{
		Title:   m.Name,
		Details: details,
		Columns: []pdf.Column{
			{Header: "#", Width: 12, Align: "R"},
			{Header: "Parameter", Width: 88},
			{Header: "Category", Width: 50},
			{Header: "Weightage", Width: 30, Align: "R"},
		},
		Rows:   rows,
		Footer: fmt.Sprintf("Total weightage: %d%%", m.TotalWeightage),
	}
}

func fileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	if clean == "" {
		return "matrix"
	}
	return strings.ToLower(clean)
}
