package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/cache"
	"ghostlounge_backend/internal/calendar"
	"ghostlounge_backend/internal/database/databasetest"
	"ghostlounge_backend/internal/lock"
	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/money"
	"ghostlounge_backend/pkg/utils"
)

// recordingSyncer keeps published events and optionally fails. When gate is
// set, the next Publish blocks until it is closed.
type recordingSyncer struct {
	mu     sync.Mutex
	events []calendar.Event
	err    error
	gate   chan struct{}
}

func (r *recordingSyncer) Publish(ctx context.Context, e calendar.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	gate, err := r.gate, r.err
	r.gate = nil
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *recordingSyncer) Close() error { return nil }

func (r *recordingSyncer) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type env struct {
	t   *testing.T
	ctx context.Context
	db  *sql.DB

	metrics  *metrics.Metrics
	balances *cache.Memory
	syncer   *recordingSyncer

	clients      ClientService
	catalog      CatalogService
	ledger       LedgerService
	ranks        RankService
	pcs          PCService
	alerts       AlertService
	users        UserService
	auth         AuthService
	reservations ReservationService
	dashboard    DashboardService

	staff int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := databasetest.Open(t)
	e := &env{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		metrics:  metrics.New(),
		balances: cache.NewMemory(time.Minute),
		syncer:   &recordingSyncer{},
	}

	clientRepo := repositories.NewClientRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	rankRepo := repositories.NewRankRepository(db)
	alertRepo := repositories.NewAlertRepository(db)
	authRepo := repositories.NewAuthRepository(db)
	pcRepo := repositories.NewPCRepository(db)
	resRepo := repositories.NewReservationRepository(db)

	e.clients = NewClientService(clientRepo, db, e.balances)
	e.catalog = NewCatalogService(catalogRepo, db)
	e.ledger = NewLedgerService(db, clientRepo, catalogRepo, ledgerRepo, rankRepo, alertRepo, authRepo, e.balances, e.metrics)
	e.ranks = NewRankService(rankRepo, db)
	e.pcs = NewPCService(pcRepo, db)
	e.alerts = NewAlertService(alertRepo, clientRepo, db)
	e.users = NewUserService(authRepo, db)
	e.auth = NewAuthService(authRepo, db, utils.NewTokenManager("test-secret", time.Hour, 24*time.Hour))
	e.reservations = NewReservationService(db, resRepo, clientRepo, pcRepo, authRepo, lock.NewLocalLocker(), e.syncer, e.metrics)
	e.dashboard = NewDashboardService(repositories.NewDashboardRepository(db))

	user, err := e.users.CreateUser(e.ctx, CreateUserRequest{Username: "desk", Password: "desk-pass", FullName: "Front Desk"})
	require.NoError(t, err)
	e.staff = user.ID
	return e
}

func (e *env) client(name string) int64 {
	e.t.Helper()
	c, err := e.clients.CreateClient(e.ctx, CreateClientRequest{Name: name})
	require.NoError(e.t, err)
	return c.ID
}

func (e *env) product(name, price string, points int64) int64 {
	e.t.Helper()
	p, err := e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: name, Price: money.MustParse(price), GhostPoints: points})
	require.NoError(e.t, err)
	return p.ID
}

func (e *env) pc(name string) int64 {
	e.t.Helper()
	pc, err := e.pcs.CreatePC(e.ctx, CreatePCRequest{Name: name})
	require.NoError(e.t, err)
	return pc.ID
}

func (e *env) rank(name string, minPoints int64, discount int) int64 {
	e.t.Helper()
	r, err := e.ranks.CreateRank(e.ctx, RankRequest{Name: name, MinPoints: minPoints, DiscountPercent: discount})
	require.NoError(e.t, err)
	return r.ID
}

// at returns a fixed UTC time on 2030-01-15.
func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 15, hour, minute, 0, 0, time.UTC)
}

func requireKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, ErrorKind(err), "error: %v", err)
}

var errBroker = errors.New("broker down")
