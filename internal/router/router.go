package router

import (
	"net/http"

	"ghostlounge_backend/internal/handlers"
	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/middleware"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer dispatches to.
type Services struct {
	Auth         services.AuthService
	Users        services.UserService
	Clients      services.ClientService
	Catalog      services.CatalogService
	Ledger       services.LedgerService
	Ranks        services.RankService
	PCs          services.PCService
	Reservations services.ReservationService
	Alerts       services.AlertService
	Dashboard    services.DashboardService
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services, tokens *utils.TokenManager, m *metrics.Metrics) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Users)
	clientHandler := handlers.NewClientHandler(svc.Clients)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	ledgerHandler := handlers.NewLedgerHandler(svc.Ledger)
	rankHandler := handlers.NewRankHandler(svc.Ranks)
	pcHandler := handlers.NewPCHandler(svc.PCs)
	reservationHandler := handlers.NewReservationHandler(svc.Reservations)
	alertHandler := handlers.NewAlertHandler(svc.Alerts)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupUserRoutes(authenticated, userHandler)
		SetupClientRoutes(authenticated, clientHandler, ledgerHandler, reservationHandler)
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupLedgerRoutes(authenticated, ledgerHandler)
		SetupRankRoutes(authenticated, rankHandler, ledgerHandler)
		SetupPCRoutes(authenticated, pcHandler)
		SetupReservationRoutes(authenticated, reservationHandler)
		SetupAlertRoutes(authenticated, alertHandler)
		authenticated.GET("/dashboard/stats", dashboardHandler.GetStats)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh", authHandler.RefreshToken)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupUserRoutes sets up the staff account routes.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, userHandler *handlers.UserHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		userRoutes.POST("", userHandler.CreateUser)
		userRoutes.GET("", userHandler.GetUsers)
		userRoutes.GET("/:id", userHandler.GetUserByID)
		userRoutes.PUT("/:id", userHandler.UpdateUser)
		userRoutes.DELETE("/:id", userHandler.DeleteUser)
	}
}

// SetupClientRoutes sets up the client routes, including per-client ledger and reservation views.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler, ledgerHandler *handlers.LedgerHandler, reservationHandler *handlers.ReservationHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)

		clientRoutes.GET("/:id/balance", ledgerHandler.GetBalance)
		clientRoutes.GET("/:id/rank", ledgerHandler.GetClientRank)
		clientRoutes.POST("/:id/points", ledgerHandler.AwardPoints)
		clientRoutes.GET("/:id/transactions", ledgerHandler.GetClientTransactions)
		clientRoutes.GET("/:id/payments", ledgerHandler.GetClientPayments)
		clientRoutes.GET("/:id/reservations", reservationHandler.GetClientReservations)
	}
}

// SetupCatalogRoutes: reads for all staff, writes for admins.
func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", catalogHandler.GetCategories)
		categoryRoutes.GET("/:id", catalogHandler.GetCategoryByID)
		categoryRoutes.POST("", adminOnly, catalogHandler.CreateCategory)
		categoryRoutes.PUT("/:id", adminOnly, catalogHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", adminOnly, catalogHandler.DeleteCategory)
	}

	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.GET("", catalogHandler.GetProducts)
		productRoutes.GET("/:id", catalogHandler.GetProductByID)
		productRoutes.POST("", adminOnly, catalogHandler.CreateProduct)
		productRoutes.PUT("/:id", adminOnly, catalogHandler.UpdateProduct)
		productRoutes.DELETE("/:id", adminOnly, catalogHandler.DeleteProduct)
	}
}

func SetupLedgerRoutes(authenticatedGroup *gin.RouterGroup, ledgerHandler *handlers.LedgerHandler) {
	authenticatedGroup.POST("/checkout", ledgerHandler.Checkout)

	transactionRoutes := authenticatedGroup.Group("/transactions")
	{
		transactionRoutes.POST("", ledgerHandler.PostCharge)
		transactionRoutes.GET("", ledgerHandler.GetTransactions)
		transactionRoutes.GET("/:id", ledgerHandler.GetTransactionByID)
		transactionRoutes.DELETE("/:id", ledgerHandler.DeleteTransaction)
	}

	paymentRoutes := authenticatedGroup.Group("/payments")
	{
		paymentRoutes.POST("", ledgerHandler.PostPayment)
		paymentRoutes.GET("", ledgerHandler.GetPayments)
		paymentRoutes.GET("/:id", ledgerHandler.GetPaymentByID)
		paymentRoutes.DELETE("/:id", ledgerHandler.DeletePayment)
	}
}

func SetupRankRoutes(authenticatedGroup *gin.RouterGroup, rankHandler *handlers.RankHandler, ledgerHandler *handlers.LedgerHandler) {
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	rankRoutes := authenticatedGroup.Group("/ranks")
	{
		rankRoutes.GET("", rankHandler.GetRanks)
		rankRoutes.GET("/lookup", ledgerHandler.GetRankForPoints)
		rankRoutes.GET("/:id", rankHandler.GetRankByID)
		rankRoutes.POST("", adminOnly, rankHandler.CreateRank)
		rankRoutes.PUT("/:id", adminOnly, rankHandler.UpdateRank)
		rankRoutes.DELETE("/:id", adminOnly, rankHandler.DeleteRank)
	}
}

func SetupPCRoutes(authenticatedGroup *gin.RouterGroup, pcHandler *handlers.PCHandler) {
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	pcRoutes := authenticatedGroup.Group("/pcs")
	{
		pcRoutes.GET("", pcHandler.GetPCs)
		pcRoutes.GET("/:id", pcHandler.GetPCByID)
		pcRoutes.POST("", adminOnly, pcHandler.CreatePC)
		pcRoutes.PUT("/:id", adminOnly, pcHandler.UpdatePC)
		pcRoutes.DELETE("/:id", adminOnly, pcHandler.DeletePC)
	}
}

func SetupReservationRoutes(authenticatedGroup *gin.RouterGroup, reservationHandler *handlers.ReservationHandler) {
	reservationRoutes := authenticatedGroup.Group("/reservations")
	{
		reservationRoutes.POST("", reservationHandler.CreateReservation)
		reservationRoutes.GET("", reservationHandler.GetReservations)
		reservationRoutes.GET("/upcoming", reservationHandler.GetUpcomingReservations)
		reservationRoutes.GET("/conflicts", reservationHandler.CheckConflict)
		reservationRoutes.GET("/:id", reservationHandler.GetReservationByID)
		reservationRoutes.PUT("/:id", reservationHandler.UpdateReservation)
		reservationRoutes.DELETE("/:id", reservationHandler.DeleteReservation)
		reservationRoutes.PUT("/:id/external-ref", reservationHandler.SetExternalEventRef)
	}
}

func SetupAlertRoutes(authenticatedGroup *gin.RouterGroup, alertHandler *handlers.AlertHandler) {
	alertRoutes := authenticatedGroup.Group("/payment-alerts")
	{
		alertRoutes.POST("", alertHandler.CreateAlert)
		alertRoutes.GET("", alertHandler.GetAlerts)
		alertRoutes.GET("/:id", alertHandler.GetAlertByID)
		alertRoutes.PATCH("/:id/notified", alertHandler.MarkNotified)
		alertRoutes.DELETE("/:id", alertHandler.DeleteAlert)
	}
}
