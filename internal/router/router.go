package router

import (
	"context"
	"net/http"
	"time"

	"landlords/config"
	"landlords/internal/domain"
	"landlords/internal/handler"
	"landlords/internal/middleware"
	"landlords/internal/repository"
	"landlords/internal/service"
	"landlords/pkg/mailer"
	"landlords/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services is the wired service layer shared by the HTTP routes and the background jobs.
type Services struct {
	Auth         *service.AuthService
	Levy         *service.LevyService
	Room         *service.RoomService
	Booking      *service.BookingService
	Announcement *service.AnnouncementService

	Users         *repository.UserRepository
	Payments      *repository.PaymentRepository
	Settings      *repository.SettingRepository
	Notifications *repository.NotificationRepository
	Dashboards    *repository.DashboardRepository
}

func NewServices(cfg *config.Config, db *gorm.DB, provider payment.Provider, mail mailer.Mailer) *Services {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo)
	levySvc := service.NewLevyService(db, cfg.Levy, provider, roomRepo, paymentRepo, settingRepo, userRepo, notificationRepo, notifSvc)
	levySvc.CallbackURL = cfg.Gateway.CallbackURL

	return &Services{
		Auth:          service.NewAuthService(cfg, userRepo),
		Levy:          levySvc,
		Room:          service.NewRoomService(db, cfg.Levy, propertyRepo, roomRepo, settingRepo),
		Booking:       service.NewBookingService(db, cfg.Levy, bookingRepo, roomRepo, paymentRepo, notifSvc),
		Announcement:  service.NewAnnouncementService(db, announcementRepo, userRepo, propertyRepo, roomRepo, mail),
		Users:         userRepo,
		Payments:      paymentRepo,
		Settings:      settingRepo,
		Notifications: notificationRepo,
		Dashboards:    repository.NewDashboardRepository(db),
	}
}

func Setup(cfg *config.Config, db *gorm.DB, svc *Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	if cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)))
	}

	// Handlers
	authHandler := handler.NewAuthHandler(svc.Auth)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	levyHandler := handler.NewLevyHandler(svc.Levy)
	roomHandler := handler.NewRoomHandler(svc.Room)
	bookingHandler := handler.NewBookingHandler(svc.Booking)
	announcementHandler := handler.NewAnnouncementHandler(svc.Announcement)
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboards, svc.Payments)
	adminHandler := handler.NewAdminHandler(svc.Dashboards, svc.Payments, svc.Settings, svc.Levy)
	webhookHandler := handler.NewPaymentWebhookHandler(svc.Levy, cfg.Gateway.WebhookSecret)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/webhooks/payments", webhookHandler.Handle)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", authHandler.Me)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.GET("/bookings", middleware.RequireRole(domain.RoleStudent), bookingHandler.ListMine)
		}

		api.GET("/rooms/bookable", authMw, roomHandler.ListBookable)
		api.POST("/bookings", authMw, middleware.RequireRole(domain.RoleStudent), bookingHandler.Create)
		api.GET("/bookings/:id/payments", authMw, bookingHandler.Payments)

		owner := api.Group("/owner")
		owner.Use(authMw, middleware.OwnerRequired())
		{
			owner.POST("/properties", roomHandler.CreateProperty)
			owner.GET("/properties", roomHandler.ListProperties)
			owner.DELETE("/properties/:id", roomHandler.DeleteProperty)
			owner.POST("/properties/:id/rooms", roomHandler.AddRoom)
			owner.POST("/rooms/status", roomHandler.UpdateStatus)
			owner.GET("/levy/summary", levyHandler.Summary)
			owner.POST("/levy/initiate", levyHandler.Initiate)
			owner.POST("/levy/verify", levyHandler.Verify)
			owner.GET("/dashboard", dashboardHandler.Owner)
			owner.GET("/payments", dashboardHandler.Payments)
			owner.GET("/bookings", bookingHandler.ListForOwner)
			owner.PATCH("/bookings/:id", bookingHandler.UpdateStatus)
			owner.POST("/bookings/:id/payments", bookingHandler.RecordPayment)
			owner.POST("/announcements", announcementHandler.Send)
			owner.GET("/announcements", announcementHandler.List)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.POST("/rooms/approve", adminHandler.ApproveRooms)
			admin.GET("/payments", adminHandler.ListPayments)
			admin.POST("/payments/reconcile", adminHandler.Reconcile)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings/:key", adminHandler.UpdateSetting)
			admin.POST("/announcements", announcementHandler.Send)
			admin.GET("/announcements", announcementHandler.List)
		}
	}

	// Paths kept for existing web clients.
	legacy := r.Group("/owner")
	legacy.Use(authMw, middleware.OwnerRequired())
	{
		legacy.POST("/verify_room_payment.php", levyHandler.Verify)
		legacy.POST("/update_room_status.php", roomHandler.UpdateStatus)
	}

	return r
}
