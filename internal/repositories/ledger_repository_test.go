package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/pkg/money"
)

func TestBalanceIsChargesMinusPayments(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedgerRepository(f.db)
	clients := NewClientRepository(f.db)
	alice, bob := f.client("Alice"), f.client("Bob")
	cola := f.product("Cola", money.MustParse("2.50"), 1)

	f.charge(alice, cola, 2, money.MustParse("2.50"))
	f.charge(alice, cola, 1, money.MustParse("2.45"))
	f.charge(alice, cola, 3, money.MustParse("2.50"))
	f.pay(alice, money.MustParse("4.00"))
	f.pay(alice, money.MustParse("1.00"))
	f.charge(bob, cola, 1, money.MustParse("2.50"))

	balance, err := ledger.GetBalance(f.ctx, f.db, alice)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("9.95"), balance)

	// listings use the same computation; multiple rows on both sides must not multiply
	list, total, err := clients.GetClients(f.ctx, models.ClientFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, money.MustParse("9.95"), list[0].Balance)
	assert.Equal(t, money.MustParse("2.50"), list[1].Balance)

	f.pay(bob, money.MustParse("10.00"))
	balance, err = ledger.GetBalance(f.ctx, f.db, bob)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("-7.50"), balance, "overpayment yields credit")

	balance, err = ledger.GetBalance(f.ctx, f.db, 404)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, balance)
}

func TestLedgerListingsAndDeletes(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedgerRepository(f.db)
	alice := f.client("Alice")
	chips := f.product("Chips", money.MustParse("1.20"), 0)

	txID := f.charge(alice, chips, 2, money.MustParse("1.20"))
	payID := f.pay(alice, money.MustParse("2.40"))

	txn, err := ledger.GetTransactionByID(f.ctx, f.db, txID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("2.40"), txn.Total)
	assert.Equal(t, "Chips", txn.ProductName)
	assert.Equal(t, "Front Desk", txn.CreatedByName)

	txns, err := ledger.GetTransactionsByClient(f.ctx, alice)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
	recent, err := ledger.GetRecentPayments(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Alice", recent[0].ClientName)

	require.NoError(t, ledger.DeleteTransaction(f.ctx, f.db, txID))
	require.NoError(t, ledger.DeletePayment(f.ctx, f.db, payID))
	assert.ErrorIs(t, ledger.DeletePayment(f.ctx, f.db, payID), ErrNotFound)
	_, err = ledger.GetTransactionByID(f.ctx, f.db, txID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientRestrictAndPoints(t *testing.T) {
	f := newFixture(t)
	clients := NewClientRepository(f.db)
	alice := f.client("Alice")
	cola := f.product("Cola", money.MustParse("2.50"), 5)
	f.charge(alice, cola, 1, money.MustParse("2.50"))

	has, err := clients.HasLedgerHistory(f.ctx, f.db, alice)
	require.NoError(t, err)
	assert.True(t, has)
	assert.ErrorIs(t, clients.DeleteClient(f.ctx, f.db, alice), ErrForeignKey)

	total, err := clients.AddPoints(f.ctx, f.db, alice, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	total, err = clients.AddPoints(f.ctx, f.db, alice, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)

	_, err = clients.AddPoints(f.ctx, f.db, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientSearch(t *testing.T) {
	f := newFixture(t)
	clients := NewClientRepository(f.db)
	phone := "+7 701 555"
	_, err := clients.CreateClient(f.ctx, f.db, &models.Client{Name: "Morpheus", Phone: &phone, CreatedAt: f.now, UpdatedAt: f.now})
	require.NoError(t, err)
	f.client("Trinity")
	f.client("Tank")

	found, total, err := clients.GetClients(f.ctx, models.ClientFilters{Search: "701"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Morpheus", found[0].Name)

	found, total, err = clients.GetClients(f.ctx, models.ClientFilters{Search: "T", Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "search is case-insensitive")
	require.Len(t, found, 1)
	assert.Equal(t, "Trinity", found[0].Name)
}
