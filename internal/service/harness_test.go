package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/repository/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Send(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []events.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

type harness struct {
	store   *memory.Store
	auth    *AuthService
	users   *UserService
	tickets *TicketService
	status  *StatusService
	metrics *observability.Metrics
	sink    *recordingSink
}

func newHarness(t *testing.T, policy config.AssigneeEditPolicy) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	metrics := observability.NewMetrics()
	dispatcher := events.NewBus()
	sink := &recordingSink{}
	NewNotificationService(dispatcher, logger, sink).RegisterHandlers()

	authCfg := config.AuthConfig{
		AccessTokenSecret:     "access-secret",
		RefreshTokenSecret:    "refresh-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
		BcryptCost:            4,
	}
	return &harness{
		store: store,
		auth:  NewAuthService(authCfg, store, logger),
		users: NewUserService(store.Repos().Users),
		tickets: NewTicketService(TicketDependencies{
			Store:       store,
			Assignments: NewAssignmentService(policy, logger),
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		status:  NewStatusService(store, dispatcher, metrics, logger),
		metrics: metrics,
		sink:    sink,
	}
}

func (h *harness) register(t *testing.T, name string, role domain.Role) domain.Actor {
	t.Helper()
	email := name + "@example.com"
	_, err := h.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "secret123", Role: role})
	require.NoError(t, err)
	user, err := h.store.Repos().Users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return domain.Actor{ID: user.ID, Role: user.Role}
}

func (h *harness) createTicket(t *testing.T, admin domain.Actor, assignees ...domain.Actor) *domain.Ticket {
	t.Helper()
	ids := make([]string, 0, len(assignees))
	for _, a := range assignees {
		ids = append(ids, a.ID)
	}
	ticket, err := h.tickets.CreateTicket(context.Background(), admin, CreateTicketInput{Title: "Fix login", AssigneeIDs: ids})
	require.NoError(t, err)
	return ticket
}

func (h *harness) setStatus(t *testing.T, actor domain.Actor, ticketID, status string) *StatusUpdateResult {
	t.Helper()
	result, err := h.status.UpdateStatus(context.Background(), actor, StatusUpdateInput{TicketID: ticketID, Status: status})
	require.NoError(t, err)
	return result
}

func (h *harness) ticket(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := loadTicket(context.Background(), h.store.Repos(), id, false)
	require.NoError(t, err)
	return ticket
}
