package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/analytics"
	"github.com/lumora/signal-console/internal/listing"
	"github.com/lumora/signal-console/internal/models"
)

// ---- Event Ingestion ----

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := s.ingestService.Ingest(r.Context(), &ev, clientIP(r)); err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	s.jsonResponse(w, map[string]string{"id": ev.ID})
}

// ---- Agents ----

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.agentService.List(r.Context(), accountID(r))
		if err != nil {
			s.logger.Error("failed to list agents", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, filterAgents(list, r))

	case http.MethodPost:
		var a models.Agent
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.agentService.Save(r.Context(), &a); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, a)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func filterAgents(list []*models.Agent, r *http.Request) []*models.Agent {
	q := r.URL.Query()
	preds := []listing.Predicate[*models.Agent]{
		listing.TextSearch(q.Get("q"), func(a *models.Agent) []string {
			return []string{a.Name, a.ID}
		}),
		listing.Equals(q.Get("segment_id"), func(a *models.Agent) string { return a.SegmentID }),
	}
	if active := q.Get("active"); active == "true" || active == "false" {
		want := active == "true"
		preds = append(preds, func(a *models.Agent) bool { return a.IsActive == want })
	}
	return listing.Apply(list, preds, agentLess(q.Get("sort"), q.Get("order") == "desc"))
}

func agentLess(sortKey string, desc bool) func(a, b *models.Agent) bool {
	switch sortKey {
	case "created":
		return listing.ByTime(func(a *models.Agent) time.Time { return a.CreatedAt }, desc)
	case "updated":
		return listing.ByTime(func(a *models.Agent) time.Time { return a.UpdatedAt }, desc)
	case "name":
		return listing.ByString(func(a *models.Agent) string { return a.Name }, desc)
	default:
		return nil
	}
}

func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/agents/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]

	// /agents/{id}/decisions
	if len(segs) == 2 && segs[1] == "decisions" {
		if r.Method != http.MethodGet {
			s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list, err := s.agentService.ListDecisionsByAgent(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to list decisions", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := s.agentService.Get(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to get agent", zap.Error(err))
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, a)

	case http.MethodDelete:
		if err := s.agentService.Delete(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Decision Log ----

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.agentService.ListDecisions(r.Context(), accountID(r))
		if err != nil {
			s.logger.Error("failed to list decisions", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, filterDecisions(list, r))

	case http.MethodPost:
		var d models.AgentDecision
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.agentService.RecordDecision(r.Context(), &d); err != nil {
			s.errorResponse(w, "failed to record: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, d)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func filterDecisions(list []*models.AgentDecision, r *http.Request) []*models.AgentDecision {
	q := r.URL.Query()
	from, _, _ := parseTime(q.Get("from"))
	to, toDateOnly, _ := parseTime(q.Get("to"))
	if toDateOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Second)
	}
	preds := []listing.Predicate[*models.AgentDecision]{
		listing.Equals(q.Get("agent_id"), func(d *models.AgentDecision) string { return d.AgentID }),
		listing.Equals(q.Get("profile_id"), func(d *models.AgentDecision) string { return d.ProfileID }),
		listing.DateRange(from, to, func(d *models.AgentDecision) time.Time { return d.DecisionedAt }),
	}
	if q.Get("holdout") == "true" {
		preds = append(preds, func(d *models.AgentDecision) bool { return d.IsHoldout })
	}
	return listing.Apply(list, preds,
		listing.ByTime(func(d *models.AgentDecision) time.Time { return d.DecisionedAt }, true))
}

// ---- Segments ----

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.segmentService.List(r.Context(), accountID(r))
		if err != nil {
			s.logger.Error("failed to list segments", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		preds := []listing.Predicate[*models.Segment]{
			listing.TextSearch(q.Get("q"), func(sg *models.Segment) []string {
				return []string{sg.Name, sg.Description}
			}),
			listing.Equals(q.Get("status"), func(sg *models.Segment) string { return sg.Status }),
		}
		s.jsonResponse(w, listing.Apply(list, preds,
			listing.ByString(func(sg *models.Segment) string { return sg.Name }, false)))

	case http.MethodPost:
		var seg models.Segment
		if err := json.NewDecoder(r.Body).Decode(&seg); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.segmentService.Save(r.Context(), &seg); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, seg)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSegmentByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/segments/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]

	// /segments/{id}/members[/{profileID}]
	if len(segs) >= 2 && segs[1] == "members" {
		s.handleSegmentMembers(w, r, id, segs[2:])
		return
	}

	switch r.Method {
	case http.MethodGet:
		seg, err := s.segmentService.Get(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if seg == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, seg)

	case http.MethodDelete:
		if err := s.segmentService.Delete(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSegmentMembers(w http.ResponseWriter, r *http.Request, segmentID string, rest []string) {
	switch {
	case r.Method == http.MethodGet && len(rest) == 0:
		members, err := s.segmentService.ListMembers(r.Context(), segmentID)
		if err != nil {
			s.errorResponse(w, "failed to list members", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, members)

	case r.Method == http.MethodPost && len(rest) == 0:
		var body struct {
			ProfileID string `json:"profile_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProfileID == "" {
			s.errorResponse(w, "profile_id required", http.StatusBadRequest)
			return
		}
		if err := s.segmentService.AddMember(r.Context(), segmentID, body.ProfileID); err != nil {
			s.errorResponse(w, "failed to add member: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodDelete && len(rest) == 1:
		if err := s.segmentService.RemoveMember(r.Context(), segmentID, rest[0]); err != nil {
			s.errorResponse(w, "failed to remove member: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Messages ----

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.messageService.List(r.Context(), accountID(r))
		if err != nil {
			s.logger.Error("failed to list messages", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		preds := []listing.Predicate[*models.Message]{
			listing.TextSearch(q.Get("q"), func(m *models.Message) []string {
				return []string{m.Name, m.ID}
			}),
			listing.Equals(q.Get("status"), func(m *models.Message) string { return m.Status }),
			listing.Equals(q.Get("category_id"), func(m *models.Message) string { return m.CategoryID }),
		}
		s.jsonResponse(w, listing.Apply(list, preds,
			listing.ByTime(func(m *models.Message) time.Time { return m.UpdatedAt }, true)))

	case http.MethodPost:
		var m models.Message
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.messageService.Save(r.Context(), &m); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, m)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMessageByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/messages/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]

	// /messages/{id}/variants
	if len(segs) == 2 && segs[1] == "variants" {
		switch r.Method {
		case http.MethodGet:
			variants, err := s.messageService.ListVariants(r.Context(), id)
			if err != nil {
				s.errorResponse(w, "failed to list variants", http.StatusInternalServerError)
				return
			}
			s.jsonResponse(w, variants)

		case http.MethodPost:
			var v models.MessageVariant
			if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
				s.errorResponse(w, "invalid json", http.StatusBadRequest)
				return
			}
			v.MessageID = id
			if err := s.messageService.SaveVariant(r.Context(), &v); err != nil {
				s.errorResponse(w, "failed to save variant: "+err.Error(), http.StatusBadRequest)
				return
			}
			s.jsonResponse(w, v)

		default:
			s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		m, err := s.messageService.Get(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if m == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, m)

	case http.MethodDelete:
		if err := s.messageService.Delete(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleVariantByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/variants/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.messageService.DeleteVariant(r.Context(), id); err != nil {
		s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Profiles ----

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.profileService.List(r.Context(), accountID(r))
		if err != nil {
			s.logger.Error("failed to list profiles", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, filterProfiles(list, r))

	case http.MethodPost:
		var p models.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.profileService.Save(r.Context(), &p); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, p)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func filterProfiles(list []*models.Profile, r *http.Request) []*models.Profile {
	q := r.URL.Query()
	from, _, _ := parseTime(q.Get("from"))
	to, toDateOnly, _ := parseTime(q.Get("to"))
	if toDateOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Second)
	}
	preds := []listing.Predicate[*models.Profile]{
		listing.TextSearch(q.Get("q"), func(p *models.Profile) []string {
			return []string{p.Email, p.Phone, p.FirstName, p.LastName}
		}),
		listing.DateRange(from, to, func(p *models.Profile) time.Time { return p.CreatedAt }),
	}
	var less func(a, b *models.Profile) bool
	switch q.Get("sort") {
	case "email":
		less = listing.ByString(func(p *models.Profile) string { return p.Email }, q.Get("order") == "desc")
	case "name":
		less = listing.ByString(func(p *models.Profile) string { return p.FullName() }, q.Get("order") == "desc")
	default:
		less = listing.ByTime(func(p *models.Profile) time.Time { return p.CreatedAt }, true)
	}
	return listing.Apply(list, preds, less)
}

func (s *Server) handleProfileByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/profiles/")
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}
	id := segs[0]

	if len(segs) == 2 {
		switch segs[1] {
		case "subscriptions":
			s.handleSubscriptions(w, r, id)
			return
		case "activity":
			if r.Method != http.MethodGet {
				s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			since, _, ok := parseTime(r.URL.Query().Get("since"))
			if !ok {
				since = time.Now().UTC().AddDate(0, 0, -90)
			}
			events, err := s.profileService.Activity(r.Context(), id, since)
			if err != nil {
				s.errorResponse(w, "failed to load activity", http.StatusInternalServerError)
				return
			}
			s.jsonResponse(w, events)
			return
		}
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.profileService.Get(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if p == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, p)

	case http.MethodDelete:
		if err := s.profileService.Delete(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request, profileID string) {
	switch r.Method {
	case http.MethodGet:
		if ch := r.URL.Query().Get("channel"); ch != "" {
			sub, err := s.profileService.Subscription(r.Context(), profileID, models.Channel(ch))
			if err != nil {
				s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
				return
			}
			s.jsonResponse(w, sub)
			return
		}
		subs, err := s.profileService.Subscriptions(r.Context(), profileID)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, subs)

	case http.MethodPut, http.MethodPost:
		var sub models.ChannelSubscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		sub.ProfileID = profileID
		if err := s.profileService.SetSubscription(r.Context(), &sub); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, sub)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Dashboard ----

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	start, end := window(r)
	g := analytics.ParseGranularity(q.Get("granularity"))

	types := models.WebEventTypes
	switch q.Get("vertical") {
	case "messaging":
		types = models.MessagingEventTypes
	case "web", "":
	default:
		s.errorResponse(w, "unknown vertical", http.StatusBadRequest)
		return
	}
	if raw := q.Get("types"); raw != "" {
		types = nil
		for _, t := range strings.Split(raw, ",") {
			types = append(types, models.EventType(strings.TrimSpace(t)))
		}
	}

	series, err := s.dashboardService.Series(r.Context(), accountID(r), start, end, g, types)
	if err != nil {
		s.logger.Error("series failed", zap.Error(err))
		s.errorResponse(w, "failed to compute series", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, series)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start, end := window(r)
	report, err := s.dashboardService.KPIs(r.Context(), accountID(r), start, end)
	if err != nil {
		s.logger.Error("kpis failed", zap.Error(err))
		s.errorResponse(w, "failed to compute kpis", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, report)
}

func (s *Server) handleAttribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start, end := window(r)
	dim := analytics.DimensionAgent
	if r.URL.Query().Get("dimension") == "message" {
		dim = analytics.DimensionMessage
	}

	rows, err := s.dashboardService.Attribution(r.Context(), accountID(r), start, end, dim)
	if err != nil {
		s.logger.Error("attribution failed", zap.Error(err))
		s.errorResponse(w, "failed to compute attribution", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, rows)
}

func (s *Server) handleAttributionCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	agentA, agentB := q.Get("a"), q.Get("b")
	if agentA == "" || agentB == "" {
		s.errorResponse(w, "a and b agent ids required", http.StatusBadRequest)
		return
	}

	start, end := window(r)
	a, b, err := s.dashboardService.CompareAgents(r.Context(), accountID(r), start, end, agentA, agentB)
	if err != nil {
		s.logger.Error("compare failed", zap.Error(err))
		s.errorResponse(w, "failed to compare", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]interface{}{"a": a, "b": b})
}
