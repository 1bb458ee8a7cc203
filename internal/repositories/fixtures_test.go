package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/database/databasetest"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/pkg/money"
)

type fixture struct {
	t    *testing.T
	ctx  context.Context
	db   *sql.DB
	now  time.Time
	user int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), db: databasetest.Open(t), now: database.Now()}
	u := &models.User{Username: "desk", PasswordHash: "x", FullName: "Front Desk", Role: models.RoleStaff, CreatedAt: f.now, UpdatedAt: f.now}
	id, err := NewAuthRepository(f.db).CreateUser(f.ctx, f.db, u)
	require.NoError(t, err)
	f.user = id
	return f
}

func (f *fixture) client(name string) int64 {
	f.t.Helper()
	id, err := NewClientRepository(f.db).CreateClient(f.ctx, f.db, &models.Client{Name: name, CreatedAt: f.now, UpdatedAt: f.now})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) product(name string, price money.Cents, points int64) int64 {
	f.t.Helper()
	id, err := NewCatalogRepository(f.db).CreateProduct(f.ctx, f.db, &models.Product{
		Name: name, Price: price, GhostPoints: points, IsActive: true, CreatedAt: f.now, UpdatedAt: f.now,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) pc(name string) int64 {
	f.t.Helper()
	id, err := NewPCRepository(f.db).CreatePC(f.ctx, f.db, &models.PC{Name: name, IsActive: true, CreatedAt: f.now, UpdatedAt: f.now})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) charge(clientID, productID int64, qty int, unit money.Cents) int64 {
	f.t.Helper()
	total, err := unit.Mul(qty)
	require.NoError(f.t, err)
	id, err := NewLedgerRepository(f.db).CreateTransaction(f.ctx, f.db, &models.Transaction{
		ClientID: clientID, ProductID: productID, Quantity: qty, UnitPrice: unit, Total: total,
		CreatedBy: f.user, CreatedAt: f.now,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) pay(clientID int64, amount money.Cents) int64 {
	f.t.Helper()
	id, err := NewLedgerRepository(f.db).CreatePayment(f.ctx, f.db, &models.Payment{
		ClientID: clientID, Amount: amount, Method: models.PaymentMethodCash, CreatedBy: f.user, CreatedAt: f.now,
	})
	require.NoError(f.t, err)
	return id
}

// at returns a fixed UTC time on 2030-01-15.
func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 15, hour, minute, 0, 0, time.UTC)
}
