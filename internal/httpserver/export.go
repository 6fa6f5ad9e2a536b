package httpserver

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/analytics"
	"github.com/lumora/signal-console/internal/export"
)

// handleExport serves /export/{subject}.csv downloads. Exports reuse
// the same filters as the corresponding list endpoints, so the file
// matches what the caller sees on screen.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subject := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/export/"), ".csv")

	var (
		header []string
		rows   [][]interface{}
		name   string
		err    error
	)

	switch subject {
	case "attribution":
		header, rows, name, err = s.exportAttribution(r)
	case "agents":
		header, rows, name, err = s.exportAgents(r)
	case "profiles":
		header, rows, name, err = s.exportProfiles(r)
	case "decisions":
		header, rows, name, err = s.exportDecisions(r)
	case "segments":
		header, rows, name, err = s.exportSegments(r)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("export failed", zap.String("subject", subject), zap.Error(err))
		s.errorResponse(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteCSV(w, header, rows); err != nil {
		s.logger.Error("export write failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	s.metrics.RecordExport(subject)
}

func (s *Server) exportAttribution(r *http.Request) ([]string, [][]interface{}, string, error) {
	start, end := window(r)
	dim := analytics.DimensionAgent
	qualifier := "agents"
	if r.URL.Query().Get("dimension") == "message" {
		dim = analytics.DimensionMessage
		qualifier = "messages"
	}

	attr, err := s.dashboardService.Attribution(r.Context(), accountID(r), start, end, dim)
	if err != nil {
		return nil, nil, "", err
	}

	header := []string{"id", "name", "revenue", "orders", "sends", "aov", "roi"}
	rows := make([][]interface{}, 0, len(attr))
	for _, row := range attr {
		rows = append(rows, []interface{}{
			row.ID, row.Name, row.Revenue, row.Orders, row.Sends, row.AOV, row.ROI,
		})
	}
	return header, rows, export.Filename("attribution", qualifier), nil
}

func (s *Server) exportAgents(r *http.Request) ([]string, [][]interface{}, string, error) {
	list, err := s.agentService.List(r.Context(), accountID(r))
	if err != nil {
		return nil, nil, "", err
	}
	list = filterAgents(list, r)

	header := []string{"id", "name", "segment_id", "active", "holdout_pct", "frequency", "created_at"}
	rows := make([][]interface{}, 0, len(list))
	for _, a := range list {
		rows = append(rows, []interface{}{
			a.ID, a.Name, a.SegmentID, a.IsActive, a.HoldoutPercentage,
			string(a.SendFrequency), a.CreatedAt.Format(time.RFC3339),
		})
	}
	return header, rows, export.Filename("agents", "all"), nil
}

func (s *Server) exportProfiles(r *http.Request) ([]string, [][]interface{}, string, error) {
	list, err := s.profileService.List(r.Context(), accountID(r))
	if err != nil {
		return nil, nil, "", err
	}
	list = filterProfiles(list, r)

	header := []string{"id", "email", "phone", "name", "created_at"}
	rows := make([][]interface{}, 0, len(list))
	for _, p := range list {
		rows = append(rows, []interface{}{
			p.ID, p.Email, p.Phone, p.FullName(), p.CreatedAt.Format(time.RFC3339),
		})
	}
	return header, rows, export.Filename("profiles", "all"), nil
}

func (s *Server) exportDecisions(r *http.Request) ([]string, [][]interface{}, string, error) {
	list, err := s.agentService.ListDecisions(r.Context(), accountID(r))
	if err != nil {
		return nil, nil, "", err
	}
	list = filterDecisions(list, r)

	header := []string{"id", "agent_id", "profile_id", "message_id", "channel", "holdout", "sent", "error", "decisioned_at", "reasoning"}
	rows := make([][]interface{}, 0, len(list))
	for _, d := range list {
		rows = append(rows, []interface{}{
			d.ID, d.AgentID, d.ProfileID, d.MessageID, string(d.Channel),
			d.IsHoldout, d.WasSent, d.SendError,
			d.DecisionedAt.Format(time.RFC3339), d.Reasoning,
		})
	}
	return header, rows, export.Filename("decisions", "all"), nil
}

func (s *Server) exportSegments(r *http.Request) ([]string, [][]interface{}, string, error) {
	list, err := s.segmentService.List(r.Context(), accountID(r))
	if err != nil {
		return nil, nil, "", err
	}

	header := []string{"id", "name", "description", "status", "created_at"}
	rows := make([][]interface{}, 0, len(list))
	for _, seg := range list {
		rows = append(rows, []interface{}{
			seg.ID, seg.Name, seg.Description, seg.Status, seg.CreatedAt.Format(time.RFC3339),
		})
	}
	return header, rows, export.Filename("segments", "all"), nil
}
