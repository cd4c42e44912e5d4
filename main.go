package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventpass/config"
	"eventpass/handlers"
	"eventpass/internal/services/upi"
	"eventpass/models"
	"eventpass/monitoring"
	"eventpass/security"
	"eventpass/services"
	"eventpass/utils"

	_ "eventpass/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/shopspring/decimal"
)

func main() {
	app := pocketbase.New()
	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := upi.New(ctx, &upi.Config{
		PayeeVPA:        cfg.UPI.PayeeVPA,
		PayeeName:       cfg.UPI.PayeeName,
		HMACSecret:      cfg.UPI.HMACSecret,
		OrderTTL:        cfg.UPI.OrderTTL,
		CallbackSubKey:  cfg.UPI.CallbackSub,
		CallbackChannel: cfg.UPI.CallbackChan,
		CallbackUUID:    cfg.UPI.CallbackUUID,
	})
	if err != nil {
		log.Fatalf("upi gateway: %v", err)
	}

	// Services run against the store seam: PocketBase in production,
	// the seeded in-memory store in demo mode.
	var store services.Store
	switch cfg.Environment {
	case "demo":
		mem := services.NewMemStore()
		seedDemo(mem)
		store = mem
	default:
		store = services.NewPBStore(app)
	}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(app, pubnub.NewPubNub(pnConfig))
	}

	registrationService := services.NewRegistrationService(store, notifier, cfg.TicketTokenBytes)
	paymentService := services.NewPaymentService(store, registrationService, gateway)
	organizerService := services.NewOrganizerService(store)
	sessionService := services.NewSessionService(redisClient, cfg.ScannerSessionTTL)
	scanFeed := services.NewScanFeed(redisClient, cfg.RecentScansLen)
	checkinService := services.NewCheckinService(store, notifier, scanFeed)
	scanLimiter := security.NewScanLimiter(redisClient, cfg.ScanRateLimit, cfg.ScanRateWindow)

	eventHandler := handlers.NewEventHandler(app, organizerService, store)
	registrationHandler := handlers.NewRegistrationHandler(app, registrationService, store)
	paymentHandler := handlers.NewPaymentHandler(app, paymentService)
	checkinHandler := handlers.NewCheckinHandler(app, checkinService, sessionService, scanFeed, scanLimiter)
	adminHandler := handlers.NewAdminHandler(app, organizerService, store)
	dashboardHandler := handlers.NewDashboardHandler(app, eventHandler, store)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Gateway callbacks flow through the same verification path as
	// manual verification requests.
	go paymentService.Run(ctx)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(cfg.MetricsPort)
	}

	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Catalog
		e.Router.GET("/api/v1/events", eventHandler.List)
		e.Router.GET("/api/v1/events/{eventId}", eventHandler.Detail)

		// Organizer surface
		e.Router.POST("/api/v1/organizers/apply", eventHandler.Apply)
		e.Router.POST("/api/v1/events", eventHandler.Create)
		e.Router.PATCH("/api/v1/events/{eventId}", eventHandler.Update)
		e.Router.POST("/api/v1/events/{eventId}/passes", eventHandler.AddPassType)
		e.Router.POST("/api/v1/events/{eventId}/submit", eventHandler.Submit)
		e.Router.POST("/api/v1/events/{eventId}/publish", eventHandler.Publish)
		e.Router.GET("/api/v1/events/{eventId}/dashboard", dashboardHandler.EventStats)
		e.Router.GET("/api/v1/events/{eventId}/attendees.csv", dashboardHandler.ExportAttendees)

		// Registration and tickets
		e.Router.POST("/api/v1/registrations", registrationHandler.Register)
		e.Router.GET("/api/v1/registrations/mine", registrationHandler.Mine)
		e.Router.GET("/api/v1/tickets/{ticketId}/qr", registrationHandler.TicketQR)
		e.Router.GET("/api/v1/tickets/{ticketId}/pdf", registrationHandler.TicketPDF)

		// Payments
		e.Router.POST("/api/v1/payments/order", paymentHandler.CreateOrder)
		e.Router.POST("/api/v1/payments/verify", paymentHandler.Verify)

		// Check-in
		e.Router.POST("/api/v1/checkin/session", checkinHandler.OpenSession)
		e.Router.DELETE("/api/v1/checkin/session", checkinHandler.CloseSession)
		e.Router.POST("/api/v1/checkin/scan", checkinHandler.Scan)
		e.Router.GET("/api/v1/checkin/recent/{eventId}", checkinHandler.RecentScans)

		// Admin
		e.Router.GET("/api/v1/admin/dashboard", adminHandler.Dashboard)
		e.Router.GET("/api/v1/admin/organizers/pending", adminHandler.PendingOrganizers)
		e.Router.POST("/api/v1/admin/organizers/{organizerId}/approve", adminHandler.ApproveOrganizer)
		e.Router.POST("/api/v1/admin/organizers/{organizerId}/reject", adminHandler.RejectOrganizer)
		e.Router.POST("/api/v1/admin/events/{eventId}/approve", adminHandler.ApproveEvent)
		e.Router.POST("/api/v1/admin/tickets/{ticketId}/cancel", adminHandler.CancelTicket)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupRecordHooks(app)

		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// setupRecordHooks enforces the invariants that must hold no matter
// which surface touches the records.
func setupRecordHooks(app *pocketbase.PocketBase) {
	// New accounts default to the student role.
	app.OnRecordCreate("users").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.GetString("role") == "" {
			e.Record.Set("role", models.RoleStudent)
		}
		return e.Next()
	})

	// Team fields travel together: a team name without members (or the
	// reverse) is always a bug somewhere upstream.
	app.OnRecordCreate("registrations").BindFunc(validateTeamFields)
	app.OnRecordUpdate("registrations").BindFunc(validateTeamFields)

	// Tickets are an audit trail: never deleted, and a used ticket
	// never changes its scan facts again.
	app.OnRecordDelete("tickets").BindFunc(func(e *core.RecordEvent) error {
		return apis.NewBadRequestError("Tickets cannot be deleted", nil)
	})
	app.OnRecordUpdate("tickets").BindFunc(func(e *core.RecordEvent) error {
		original := e.Record.Original()
		if original.GetString("status") == models.TicketUsed {
			if e.Record.GetString("status") != models.TicketUsed ||
				e.Record.GetString("scanned_by") != original.GetString("scanned_by") ||
				!e.Record.GetDateTime("scanned_at").Time().Equal(original.GetDateTime("scanned_at").Time()) {
				return apis.NewBadRequestError("Used tickets are immutable", nil)
			}
		}
		return e.Next()
	})
}

func validateTeamFields(e *core.RecordEvent) error {
	name := e.Record.GetString("team_name")

	var members []models.TeamMember
	if raw := e.Record.GetString("team_members"); raw != "" && raw != "null" {
		if err := e.Record.UnmarshalJSONField("team_members", &members); err != nil {
			return apis.NewBadRequestError("Malformed team members", err)
		}
	}

	if (name == "") != (len(members) == 0) {
		return apis.NewBadRequestError("Team name and team members must be set together", nil)
	}
	return e.Next()
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

func handleShutdown(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down", sig)
	cancel()
	time.Sleep(time.Second)
}

// seedDemo fills the in-memory store with a browsable fixture so the
// whole flow works without a configured database.
func seedDemo(mem *services.MemStore) {
	now := time.Now()

	mem.Organizers["org_demo"] = &models.Organizer{
		ID:      "org_demo",
		UserID:  "user_org",
		OrgName: "Tech Club",
		Status:  models.OrganizerApproved,
	}
	mem.Events["evt_demo"] = &models.Event{
		ID:              "evt_demo",
		OrganizerID:     "org_demo",
		Name:            "HackNight 2026",
		Venue:           "Main Auditorium",
		StartTime:       now.Add(48 * time.Hour),
		EndTime:         now.Add(60 * time.Hour),
		Status:          models.EventPublished,
		MaxParticipants: 300,
		IsTeamEvent:     true,
		MaxTeamSize:     4,
	}
	mem.PassTypes["pass_free"] = &models.PassType{
		ID:       "pass_free",
		EventID:  "evt_demo",
		Name:     "Visitor",
		Price:    decimal.Zero,
		IsActive: true,
	}
	mem.PassTypes["pass_paid"] = &models.PassType{
		ID:       "pass_paid",
		EventID:  "evt_demo",
		Name:     "Participant",
		Price:    decimal.NewFromInt(150),
		Quantity: 200,
		IsActive: true,
	}
	mem.Profiles["user_org"] = "Demo Organizer"
}
