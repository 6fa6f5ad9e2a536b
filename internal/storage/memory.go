package storage

import (
	"context"
	"sync"
	"time"

	"github.com/lumora/signal-console/internal/models"
)

// In-memory implementations. Used when PostgreSQL/ClickHouse are not
// configured and throughout the test suite.

// =============================================
// AGENTS
// =============================================

// InMemoryAgentRepo stores agents in memory.
type InMemoryAgentRepo struct {
	mu     sync.RWMutex
	agents map[string]*models.Agent
}

func NewInMemoryAgentRepo() *InMemoryAgentRepo {
	return &InMemoryAgentRepo{agents: make(map[string]*models.Agent)}
}

func (r *InMemoryAgentRepo) ListAll(ctx context.Context, accountID string) ([]*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		if accountID == "" || a.AccountID == accountID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *InMemoryAgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.agents[id]; ok {
		return a, nil
	}
	return nil, nil
}

func (r *InMemoryAgentRepo) Upsert(ctx context.Context, a *models.Agent) error {
	if a == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.agents[a.ID] = &cp
	return nil
}

func (r *InMemoryAgentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
	return nil
}

// =============================================
// SEGMENTS
// =============================================

// InMemorySegmentRepo stores segments and membership rows in memory.
type InMemorySegmentRepo struct {
	mu       sync.RWMutex
	segments map[string]*models.Segment
	members  map[string][]*models.SegmentProfile // segment_id -> rows
}

func NewInMemorySegmentRepo() *InMemorySegmentRepo {
	return &InMemorySegmentRepo{
		segments: make(map[string]*models.Segment),
		members:  make(map[string][]*models.SegmentProfile),
	}
}

func (r *InMemorySegmentRepo) ListAll(ctx context.Context, accountID string) ([]*models.Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Segment, 0, len(r.segments))
	for _, s := range r.segments {
		if accountID == "" || s.AccountID == accountID {
			res = append(res, s)
		}
	}
	return res, nil
}

func (r *InMemorySegmentRepo) GetByID(ctx context.Context, id string) (*models.Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.segments[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (r *InMemorySegmentRepo) Upsert(ctx context.Context, s *models.Segment) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.segments[s.ID] = &cp
	return nil
}

func (r *InMemorySegmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.segments, id)
	delete(r.members, id)
	return nil
}

func (r *InMemorySegmentRepo) ListMembers(ctx context.Context, segmentID string) ([]*models.SegmentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.members[segmentID]
	res := make([]*models.SegmentProfile, len(rows))
	copy(res, rows)
	return res, nil
}

func (r *InMemorySegmentRepo) AddMember(ctx context.Context, m *models.SegmentProfile) error {
	if m == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.members[m.SegmentID] {
		if row.ProfileID == m.ProfileID {
			return nil
		}
	}
	cp := *m
	r.members[m.SegmentID] = append(r.members[m.SegmentID], &cp)
	return nil
}

func (r *InMemorySegmentRepo) RemoveMember(ctx context.Context, segmentID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.members[segmentID]
	out := rows[:0]
	for _, row := range rows {
		if row.ProfileID != profileID {
			out = append(out, row)
		}
	}
	r.members[segmentID] = out
	return nil
}

// =============================================
// MESSAGES
// =============================================

// InMemoryMessageRepo stores messages and variants in memory.
type InMemoryMessageRepo struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	variants map[string]*models.MessageVariant
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		messages: make(map[string]*models.Message),
		variants: make(map[string]*models.MessageVariant),
	}
}

func (r *InMemoryMessageRepo) ListAll(ctx context.Context, accountID string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Message, 0, len(r.messages))
	for _, m := range r.messages {
		if accountID == "" || m.AccountID == accountID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (r *InMemoryMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.messages[id]; ok {
		return m, nil
	}
	return nil, nil
}

func (r *InMemoryMessageRepo) Upsert(ctx context.Context, m *models.Message) error {
	if m == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

func (r *InMemoryMessageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *InMemoryMessageRepo) ListVariants(ctx context.Context, messageID string) ([]*models.MessageVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*models.MessageVariant
	for _, v := range r.variants {
		if v.MessageID == messageID {
			res = append(res, v)
		}
	}
	return res, nil
}

func (r *InMemoryMessageRepo) UpsertVariant(ctx context.Context, v *models.MessageVariant) error {
	if v == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.variants[v.ID] = &cp
	return nil
}

func (r *InMemoryMessageRepo) DeleteVariant(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.variants, id)
	return nil
}

func (r *InMemoryMessageRepo) DeleteVariantsByMessage(ctx context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.variants {
		if v.MessageID == messageID {
			delete(r.variants, id)
		}
	}
	return nil
}

// =============================================
// PROFILES
// =============================================

type subKey struct {
	profileID string
	channel   models.Channel
}

// InMemoryProfileRepo stores profiles and subscriptions in memory.
type InMemoryProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	subs     map[subKey]*models.ChannelSubscription
}

func NewInMemoryProfileRepo() *InMemoryProfileRepo {
	return &InMemoryProfileRepo{
		profiles: make(map[string]*models.Profile),
		subs:     make(map[subKey]*models.ChannelSubscription),
	}
}

func (r *InMemoryProfileRepo) ListAll(ctx context.Context, accountID string) ([]*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if accountID == "" || p.AccountID == accountID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (r *InMemoryProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	return nil, nil
}

func (r *InMemoryProfileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *InMemoryProfileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	for k := range r.subs {
		if k.profileID == id {
			delete(r.subs, k)
		}
	}
	return nil
}

func (r *InMemoryProfileRepo) ListSubscriptions(ctx context.Context, profileID string) ([]*models.ChannelSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*models.ChannelSubscription
	for k, sub := range r.subs {
		if k.profileID == profileID {
			res = append(res, sub)
		}
	}
	return res, nil
}

func (r *InMemoryProfileRepo) GetSubscription(ctx context.Context, profileID string, ch models.Channel) (*models.ChannelSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sub, ok := r.subs[subKey{profileID, ch}]; ok {
		return sub, nil
	}
	return nil, nil
}

func (r *InMemoryProfileRepo) UpsertSubscription(ctx context.Context, sub *models.ChannelSubscription) error {
	if sub == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[subKey{sub.ProfileID, sub.Channel}] = &cp
	return nil
}

// =============================================
// DECISIONS
// =============================================

// InMemoryDecisionRepo stores agent decisions in memory in insertion
// order.
type InMemoryDecisionRepo struct {
	mu        sync.RWMutex
	decisions []*models.AgentDecision
	byID      map[string]*models.AgentDecision
}

func NewInMemoryDecisionRepo() *InMemoryDecisionRepo {
	return &InMemoryDecisionRepo{byID: make(map[string]*models.AgentDecision)}
}

func (r *InMemoryDecisionRepo) ListAll(ctx context.Context, accountID string) ([]*models.AgentDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.AgentDecision, 0, len(r.decisions))
	for _, d := range r.decisions {
		if accountID == "" || d.AccountID == accountID {
			res = append(res, d)
		}
	}
	return res, nil
}

func (r *InMemoryDecisionRepo) ListByAgent(ctx context.Context, agentID string) ([]*models.AgentDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*models.AgentDecision
	for _, d := range r.decisions {
		if d.AgentID == agentID {
			res = append(res, d)
		}
	}
	return res, nil
}

func (r *InMemoryDecisionRepo) GetByID(ctx context.Context, id string) (*models.AgentDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.byID[id]; ok {
		return d, nil
	}
	return nil, nil
}

func (r *InMemoryDecisionRepo) Insert(ctx context.Context, d *models.AgentDecision) error {
	if d == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.decisions = append(r.decisions, &cp)
	r.byID[d.ID] = &cp
	return nil
}

// =============================================
// EVENTS
// =============================================

// InMemoryEventStore stores the append-only event stream in memory in
// arrival order.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []*models.Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) Append(ctx context.Context, ev *models.Event) error {
	if ev == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ev
	s.events = append(s.events, &cp)
	return nil
}

func (s *InMemoryEventStore) ListRange(ctx context.Context, accountID string, start, end time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*models.Event
	for _, ev := range s.events {
		if accountID != "" && ev.AccountID != accountID {
			continue
		}
		if ev.OccurredAt.Before(start) || ev.OccurredAt.After(end) {
			continue
		}
		res = append(res, ev)
	}
	return res, nil
}

func (s *InMemoryEventStore) ListByProfile(ctx context.Context, profileID string, since time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*models.Event
	for _, ev := range s.events {
		if ev.ProfileID == profileID && !ev.OccurredAt.Before(since) {
			res = append(res, ev)
		}
	}
	return res, nil
}
