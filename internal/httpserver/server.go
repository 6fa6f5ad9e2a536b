package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/config"
	"github.com/lumora/signal-console/internal/console"
	"github.com/lumora/signal-console/internal/database"
	"github.com/lumora/signal-console/internal/geo"
	"github.com/lumora/signal-console/internal/metrics"
	"github.com/lumora/signal-console/internal/middleware"
	"github.com/lumora/signal-console/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Server wraps HTTP handlers and console services.
type Server struct {
	agentService     *console.AgentService
	segmentService   *console.SegmentService
	messageService   *console.MessageService
	profileService   *console.ProfileService
	ingestService    *console.IngestService
	dashboardService *console.DashboardService
	logger           *zap.Logger
	config           *config.Config
	metrics          *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories. Entities live in Postgres when
	// available; the event stream prefers ClickHouse, then Postgres.
	var (
		agentRepo    storage.AgentRepo
		segmentRepo  storage.SegmentRepo
		messageRepo  storage.MessageRepo
		profileRepo  storage.ProfileRepo
		decisionRepo storage.DecisionRepo
		eventStore   storage.EventStore
	)

	if deps.DB != nil {
		agentRepo = storage.NewPostgresAgentRepo(deps.DB.Pool)
		segmentRepo = storage.NewPostgresSegmentRepo(deps.DB.Pool)
		messageRepo = storage.NewPostgresMessageRepo(deps.DB.Pool)
		profileRepo = storage.NewPostgresProfileRepo(deps.DB.Pool)
		decisionRepo = storage.NewPostgresDecisionRepo(deps.DB.Pool)
	} else {
		agentRepo = storage.NewInMemoryAgentRepo()
		segmentRepo = storage.NewInMemorySegmentRepo()
		messageRepo = storage.NewInMemoryMessageRepo()
		profileRepo = storage.NewInMemoryProfileRepo()
		decisionRepo = storage.NewInMemoryDecisionRepo()
	}

	switch {
	case deps.ClickHouse != nil:
		eventStore = storage.NewClickHouseEventStore(deps.ClickHouse.Conn)
	case deps.DB != nil:
		eventStore = storage.NewPostgresEventStore(deps.DB.Pool)
	default:
		eventStore = storage.NewInMemoryEventStore()
	}

	// GeoIP enrichment is optional; without it events are stored
	// without country codes.
	var resolver *geo.Resolver
	if deps.Config.Geo.Enabled {
		r, err := geo.NewResolver(deps.Config.Geo.DatabasePath)
		if err != nil {
			deps.Logger.Warn("failed to open GeoIP database, country enrichment disabled", zap.Error(err))
		} else {
			resolver = r
		}
	}

	s := &Server{
		agentService:   console.NewAgentService(agentRepo, segmentRepo, decisionRepo, deps.Logger, deps.Metrics),
		segmentService: console.NewSegmentService(segmentRepo, profileRepo, deps.Logger),
		messageService: console.NewMessageService(messageRepo, deps.Logger),
		profileService: console.NewProfileService(profileRepo, eventStore, deps.Logger),
		ingestService:  console.NewIngestService(eventStore, resolver, deps.Logger, deps.Metrics),
		dashboardService: console.NewDashboardService(
			eventStore, agentRepo, messageRepo,
			deps.Redis,
			deps.Config.Location(),
			deps.Config.Dashboard.CacheTTL,
			deps.Logger, deps.Metrics,
		),
		logger:  deps.Logger,
		config:  deps.Config,
		metrics: deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Event ingestion
	mux.HandleFunc("/events/ingest", s.handleIngest)

	// Agents
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/agents/", s.handleAgentByID)

	// Decision log
	mux.HandleFunc("/decisions", s.handleDecisions)

	// Segments
	mux.HandleFunc("/segments", s.handleSegments)
	mux.HandleFunc("/segments/", s.handleSegmentByID)

	// Messages and variants
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/messages/", s.handleMessageByID)
	mux.HandleFunc("/variants/", s.handleVariantByID)

	// Profiles and subscriptions
	mux.HandleFunc("/profiles", s.handleProfiles)
	mux.HandleFunc("/profiles/", s.handleProfileByID)

	// Dashboard
	mux.HandleFunc("/dashboard/series", s.handleSeries)
	mux.HandleFunc("/dashboard/kpis", s.handleKPIs)
	mux.HandleFunc("/dashboard/attribution", s.handleAttribution)
	mux.HandleFunc("/dashboard/attribution/compare", s.handleAttributionCompare)

	// CSV exports
	mux.HandleFunc("/export/", s.handleExport)

	// Middleware chain, innermost first.
	var handler http.Handler = mux
	handler = middleware.NewAuthMiddleware(deps.Config.Auth, deps.Logger).Handler(handler)
	handler = middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger, deps.Metrics).Handler(handler)
	handler = middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(deps.Logger).Handler(handler)

	return handler
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Helpers ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// accountID reads the account scope from the query string.
func accountID(r *http.Request) string {
	return r.URL.Query().Get("account_id")
}

// parseTime accepts RFC 3339 or plain dates. dateOnly reports that the
// value carried no time of day.
func parseTime(s string) (t time.Time, dateOnly, ok bool) {
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// window reads start/end query params, defaulting to the last 30 days.
// A date-only end bound is inclusive of that whole day.
func window(r *http.Request) (time.Time, time.Time) {
	q := r.URL.Query()
	end, dateOnly, ok := parseTime(q.Get("end"))
	switch {
	case !ok:
		end = time.Now().UTC()
	case dateOnly:
		end = end.AddDate(0, 0, 1).Add(-time.Second)
	}
	start, _, ok := parseTime(q.Get("start"))
	if !ok {
		start = end.AddDate(0, 0, -30)
	}
	return start, end
}

// pathSegments splits the path after a prefix, dropping empties.
func pathSegments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// clientIP mirrors the rate limiter's extraction order.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
