package cyclehandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"appraisal/internal/domain/cycle"
	"appraisal/internal/platform/pdf"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
)

const dateLayout = "2006-01-02"

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	c, err := h.Service.GetCycle(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, rosterReport(c)); err != nil {
		slog.Error("cycle roster export failed", "cycleId", id, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cycle-"+c.ID+"-roster.pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func rosterReport(c cycle.Cycle) pdf.Report {
	details := [][2]string{
		{"Status", c.Status},
		{"Period", c.StartDate.Format(dateLayout) + " to " + c.EndDate.Format(dateLayout)},
	}
	if c.ActivatedAt != nil {
		details = append(details, [2]string{"Activated", c.ActivatedAt.Format(dateLayout)})
	}
	rows := make([][]string, 0, len(c.Assignments))
	for i, a := range c.Assignments {
		rows = append(rows, []string{strconv.Itoa(i + 1), a.TeamName, a.MatrixName, a.LineManagerName})
	}
	return pdf.Report{
		Title:   c.Name + " roster",
		Details: details,
		Columns: []pdf.Column{
			{Header: "#", Width: 12, Align: "R"},
			{Header: "Team", Width: 60},
			{Header: "Matrix", Width: 60},
			{Header: "Line manager", Width: 48},
		},
		Rows:   rows,
		Footer: fmt.Sprintf("%d assignment(s)", len(c.Assignments)),
	}
}
