package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/pkg/money"
	"ghostlounge_backend/pkg/utils"
)

func TestRankThresholdsAreUnique(t *testing.T) {
	e := newEnv(t)
	bronze := e.rank("Bronze", 100, 2)
	silver := e.rank("Silver", 300, 5)

	_, err := e.ranks.CreateRank(e.ctx, RankRequest{Name: "Copper", MinPoints: 100})
	requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrRankThresholdTaken)

	_, err = e.ranks.UpdateRank(e.ctx, silver, RankRequest{Name: "Silver", MinPoints: 100, DiscountPercent: 5})
	assert.ErrorIs(t, err, ErrRankThresholdTaken)

	// keeping its own threshold is fine
	updated, err := e.ranks.UpdateRank(e.ctx, bronze, RankRequest{Name: "Bronze+", MinPoints: 100, DiscountPercent: 3, Color: "#cd7f32"})
	require.NoError(t, err)
	assert.Equal(t, "Bronze+", updated.Name)
	assert.Equal(t, 3, updated.DiscountPercent)

	ranks, err := e.ranks.GetRanks(e.ctx)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, int64(100), ranks[0].MinPoints)

	require.NoError(t, e.ranks.DeleteRank(e.ctx, bronze))
	assert.ErrorIs(t, e.ranks.DeleteRank(e.ctx, bronze), ErrRankNotFound)
	_, err = e.ranks.UpdateRank(e.ctx, bronze, RankRequest{Name: "Gone"})
	assert.ErrorIs(t, err, ErrRankNotFound)
}

func TestRankValidation(t *testing.T) {
	e := newEnv(t)
	bad := []RankRequest{
		{Name: ""},
		{Name: "Neg", MinPoints: -1},
		{Name: "Big", DiscountPercent: 101},
		{Name: "Small", DiscountPercent: -1},
		{Name: "Color", Color: "red"},
		{Name: "Order", SortOrder: -1},
	}
	for _, req := range bad {
		_, err := e.ranks.CreateRank(e.ctx, req)
		requireKind(t, err, KindValidation)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	e := newEnv(t)
	snacks, err := e.catalog.CreateCategory(e.ctx, CategoryRequest{Name: "Snacks"})
	require.NoError(t, err)
	_, err = e.catalog.CreateCategory(e.ctx, CategoryRequest{Name: "Snacks"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = e.catalog.CreateCategory(e.ctx, CategoryRequest{Name: "  "})
	requireKind(t, err, KindValidation)

	chips, err := e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: "Chips", CategoryID: &snacks.ID, Price: money.MustParse("1.50"), GhostPoints: 2})
	require.NoError(t, err)
	require.NotNil(t, chips.CategoryName)
	assert.Equal(t, "Snacks", *chips.CategoryName)
	assert.True(t, chips.IsActive)

	assert.ErrorIs(t, e.catalog.DeleteCategory(e.ctx, snacks.ID), ErrCategoryInUse)
	require.NoError(t, e.catalog.DeleteProduct(e.ctx, chips.ID))
	require.NoError(t, e.catalog.DeleteCategory(e.ctx, snacks.ID))
	assert.ErrorIs(t, e.catalog.DeleteCategory(e.ctx, snacks.ID), ErrCategoryNotFound)

	missing := int64(9999)
	_, err = e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: "Ghost", CategoryID: &missing, Price: 100})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductValidationAndFilters(t *testing.T) {
	e := newEnv(t)
	_, err := e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: "Free", Price: 0})
	requireKind(t, err, KindValidation)
	_, err = e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: "Neg points", Price: 100, GhostPoints: -1})
	requireKind(t, err, KindValidation)

	e.product("Cola", "1.00", 1)
	off := false
	_, err = e.catalog.CreateProduct(e.ctx, CreateProductRequest{Name: "Old cola", Price: 100, IsActive: &off})
	require.NoError(t, err)

	all, err := e.catalog.GetProducts(e.ctx, models.ProductFilters{Search: "cola"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := e.catalog.GetProducts(e.ctx, models.ProductFilters{Search: "cola", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Cola", active[0].Name)
}

func TestClientValidationAndUpdate(t *testing.T) {
	e := newEnv(t)
	_, err := e.clients.CreateClient(e.ctx, CreateClientRequest{Name: " "})
	requireKind(t, err, KindValidation)
	bad := "not-an-email"
	_, err = e.clients.CreateClient(e.ctx, CreateClientRequest{Name: "Neo", Email: &bad})
	requireKind(t, err, KindValidation)

	phone := " +7 700 000 0000 "
	neo, err := e.clients.CreateClient(e.ctx, CreateClientRequest{Name: "Neo", Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, neo.Phone)
	assert.Equal(t, "+7 700 000 0000", *neo.Phone)

	email := "neo@zion.io"
	empty := ""
	updated, err := e.clients.UpdateClient(e.ctx, neo.ID, UpdateClientRequest{Email: &email, Phone: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.Phone)
	require.NotNil(t, updated.Email)
	assert.Equal(t, email, *updated.Email)
	assert.Equal(t, "Neo", updated.Name)

	_, err = e.clients.UpdateClient(e.ctx, 9999, UpdateClientRequest{Email: &email})
	assert.ErrorIs(t, err, ErrClientNotFound)

	list, total, err := e.clients.GetClients(e.ctx, models.ClientFilters{Search: "zion"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestPCLifecycle(t *testing.T) {
	e := newEnv(t)
	pc := e.pc("PC-1")
	_, err := e.pcs.CreatePC(e.ctx, CreatePCRequest{Name: "PC-1"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	off := false
	_, err = e.pcs.CreatePC(e.ctx, CreatePCRequest{Name: "PC-2", IsActive: &off})
	require.NoError(t, err)

	active, err := e.pcs.GetPCs(e.ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, pc, active[0].ID)
	all, err := e.pcs.GetPCs(e.ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, e.pcs.DeletePC(e.ctx, pc))
	assert.ErrorIs(t, e.pcs.DeletePC(e.ctx, pc), ErrPCNotFound)
}

func TestUserManagement(t *testing.T) {
	e := newEnv(t)
	_, err := e.users.CreateUser(e.ctx, CreateUserRequest{Username: "desk", Password: "secret1", FullName: "Dup"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = e.users.CreateUser(e.ctx, CreateUserRequest{Username: "x", Password: "123", FullName: "Short"})
	requireKind(t, err, KindValidation)
	_, err = e.users.CreateUser(e.ctx, CreateUserRequest{Username: "x", Password: "secret1", FullName: "X", Role: "owner"})
	requireKind(t, err, KindValidation)

	boss, err := e.users.CreateUser(e.ctx, CreateUserRequest{Username: "boss", Password: "secret1", FullName: "Boss", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)

	staff := models.RoleStaff
	newPass := "changed-pass"
	updated, err := e.users.UpdateUser(e.ctx, boss.ID, UpdateUserRequest{Role: &staff, Password: &newPass})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, updated.Role)

	_, err = e.auth.LoginUser(e.ctx, LoginRequest{Username: "boss", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.LoginUser(e.ctx, LoginRequest{Username: "boss", Password: newPass})
	require.NoError(t, err)

	// the desk user has recorded a payment
	e.pay(e.client("Neo"), "1.00")
	assert.ErrorIs(t, e.users.DeleteUser(e.ctx, e.staff), ErrUserHasHistory)
	require.NoError(t, e.users.DeleteUser(e.ctx, boss.ID))
	assert.ErrorIs(t, e.users.DeleteUser(e.ctx, boss.ID), ErrUserNotFound)
}

func TestLoginAndRefresh(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.LoginUser(e.ctx, LoginRequest{Username: "nobody", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.LoginUser(e.ctx, LoginRequest{Username: "desk", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := e.auth.LoginUser(e.ctx, LoginRequest{Username: "desk", Password: "desk-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, e.staff, resp.User.ID)

	refreshed, err := e.auth.RefreshToken(e.ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// an access token is not a refresh token
	_, err = e.auth.RefreshToken(e.ctx, RefreshRequest{RefreshToken: resp.AccessToken})
	assert.ErrorIs(t, err, utils.ErrInvalidToken)

	me, err := e.auth.GetUserProfile(e.ctx, e.staff)
	require.NoError(t, err)
	assert.Equal(t, "desk", me.Username)
	_, err = e.auth.GetUserProfile(e.ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAlertLifecycle(t *testing.T) {
	e := newEnv(t)
	neo := e.client("Neo")
	svc := e.alerts.(*alertService)
	svc.now = func() time.Time { return at(12, 0) }

	overdue, err := e.alerts.CreateAlert(e.ctx, CreateAlertRequest{ClientID: neo, DueAt: at(9, 0), Amount: money.MustParse("5.00")}, e.staff)
	require.NoError(t, err)
	_, err = e.alerts.CreateAlert(e.ctx, CreateAlertRequest{ClientID: neo, DueAt: at(18, 0), Amount: money.MustParse("2.00")}, e.staff)
	require.NoError(t, err)

	_, err = e.alerts.CreateAlert(e.ctx, CreateAlertRequest{ClientID: neo, DueAt: at(9, 0)}, e.staff)
	requireKind(t, err, KindValidation)
	_, err = e.alerts.CreateAlert(e.ctx, CreateAlertRequest{ClientID: 9999, DueAt: at(9, 0), Amount: 100}, e.staff)
	assert.ErrorIs(t, err, ErrClientNotFound)

	due, err := e.alerts.GetOverdueAlerts(e.ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)

	for i := 0; i < 2; i++ {
		marked, err := e.alerts.MarkNotified(e.ctx, overdue.ID)
		require.NoError(t, err)
		assert.True(t, marked.IsNotified)
	}
	due, err = e.alerts.GetOverdueAlerts(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = e.alerts.MarkNotified(e.ctx, 9999)
	assert.ErrorIs(t, err, ErrAlertNotFound)
	require.NoError(t, e.alerts.DeleteAlert(e.ctx, overdue.ID))
	assert.ErrorIs(t, e.alerts.DeleteAlert(e.ctx, overdue.ID), ErrAlertNotFound)
}

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	neo, trin := e.client("Neo"), e.client("Trinity")
	cola := e.product("Cola", "2.00", 0)
	e.charge(neo, cola, 3)
	e.charge(trin, cola, 1)
	e.pay(trin, "5.00")

	stats, err := e.dashboard.GetStats(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalClients)
	assert.Equal(t, money.MustParse("3.00"), stats.TotalOutstanding)
	assert.Equal(t, money.MustParse("5.00"), stats.MonthPayments)
	assert.Equal(t, int64(0), stats.OverdueAlerts)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, KindNotFound, ErrorKind(ErrPCNotFound))
	assert.Equal(t, KindConflict, ErrorKind(ErrPCBusy))
	assert.Equal(t, KindValidation, ErrorKind(validationf("x")))
	assert.Equal(t, KindUnknown, ErrorKind(ErrInvalidCredentials))
}
