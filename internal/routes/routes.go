package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/storage"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notification"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// Deps are the long-lived resources built by main. Redis and Photos are nil
// when not configured.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Log      *zap.Logger
	Redis    *redis.Client
	Photos   storage.ObjectStore
	Audit    *audit.Dispatcher
	Notifier notification.Sink
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	db, cfg := d.DB, d.Config

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	scheduleRepo := infraRepo.NewScheduleGormRepository(db)
	directory := infraRepo.NewDirectoryGormRepository(db)

	var (
		slotsCache cache.Availability = cache.NoopAvailability{}
		locker     lock.Locker        = lock.NewLocal()
	)
	if d.Redis != nil {
		slotsCache = cache.NewRedisAvailability(d.Redis, cfg.AvailabilityCacheTTL, d.Log)
		locker = lock.NewRedis(d.Redis, d.Log)
	}

	engine := availability.NewEngine(scheduleRepo, appointmentRepo)

	// ======================================================
	// 🧠 USE CASES (APPOINTMENTS)
	// ======================================================
	createAppointmentUC := ucAppointment.NewCreateAppointment(
		appointmentRepo, locker, cfg.BookingLockTTL, slotsCache, d.Notifier, d.Audit,
	)
	rescheduleAppointmentUC := ucAppointment.NewRescheduleAppointment(
		appointmentRepo, locker, cfg.BookingLockTTL, slotsCache, d.Notifier, d.Audit,
	)
	getAvailabilityUC := ucAppointment.NewGetAvailability(
		appointmentRepo, engine, slotsCache, cfg.DefaultSlotMinutes,
	)

	appointmentUC := handlers.AppointmentUseCases{
		Create:       createAppointmentUC,
		Confirm:      ucAppointment.NewConfirmAppointment(appointmentRepo, slotsCache, d.Notifier, d.Audit),
		Cancel:       ucAppointment.NewCancelAppointment(appointmentRepo, slotsCache, d.Notifier, d.Audit),
		Complete:     ucAppointment.NewCompleteAppointment(appointmentRepo, slotsCache, d.Notifier, d.Audit),
		NoShow:       ucAppointment.NewMarkNoShow(appointmentRepo, slotsCache, d.Notifier, d.Audit),
		Reschedule:   rescheduleAppointmentUC,
		Availability: getAvailabilityUC,
		ListByDate:   ucAppointment.NewListAppointmentsByDate(appointmentRepo),
		ListByMonth:  ucAppointment.NewListAppointmentsByMonth(appointmentRepo),
	}

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg, d.Audit)
	meHandler := handlers.NewMeHandler(db)
	clinicHandler := handlers.NewClinicHandler(db, slotsCache, d.Audit)

	doctorHandler := handlers.NewDoctorHandler(db, directory, d.Photos, slotsCache, d.Audit)
	patientHandler := handlers.NewPatientHandler(db, d.Audit)
	serviceHandler := handlers.NewMedicalServiceHandler(db, d.Audit)
	workingHoursHandler := handlers.NewWorkingHoursHandler(scheduleRepo, appointmentRepo, directory, slotsCache, d.Audit)

	appointmentHandler := handlers.NewAppointmentHandler(directory, appointmentUC)
	treatmentHandler := handlers.NewTreatmentHandler(db, directory, d.Audit)
	notificationHandler := handlers.NewNotificationHandler(db)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)

	publicHandler := handlers.NewPublicHandler(db, directory, createAppointmentUC, getAvailabilityUC)

	const (
		admin  = middleware.RoleAdmin
		doctor = middleware.RoleDoctor
		staff  = middleware.RoleStaff
	)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🌐 PUBLIC
		// ------------------------------
		publicAPI := api.Group("/public/:slug")
		{
			publicAPI.GET("/doctors", publicHandler.ListDoctors)
			publicAPI.GET("/services", publicHandler.ListServices)
			publicAPI.GET("/doctors/:id/availability", publicHandler.Availability)
			publicAPI.POST("/appointments", publicHandler.CreateAppointment)
		}

		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 PRIVATE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.GET("/me/notifications", notificationHandler.List)
			secured.PATCH("/me/notifications/:id/read", notificationHandler.MarkRead)

			secured.GET("/me/clinic", clinicHandler.GetMeClinic)
			secured.PATCH("/me/clinic", middleware.RequireRoles(admin), clinicHandler.UpdateMeClinic)

			// ------------------------------
			// DOCTORS / SCHEDULE
			// ------------------------------
			secured.GET("/doctors", doctorHandler.List)
			secured.GET("/doctors/:id", doctorHandler.Get)
			secured.POST("/doctors", middleware.RequireRoles(admin), doctorHandler.Create)
			secured.PATCH("/doctors/:id", middleware.RequireRoles(admin), doctorHandler.Update)
			secured.POST("/doctors/:id/photo", middleware.RequireRoles(admin, doctor), doctorHandler.UploadPhoto)

			secured.GET("/doctors/:id/working-hours", workingHoursHandler.Get)
			secured.PUT("/doctors/:id/working-hours", middleware.RequireRoles(admin, doctor), workingHoursHandler.Update)
			secured.POST("/doctors/:id/working-hours/defaults", middleware.RequireRoles(admin, doctor), workingHoursHandler.SeedDefaults)

			secured.GET("/doctors/:id/availability", appointmentHandler.Availability)

			// ------------------------------
			// PATIENTS / SERVICES
			// ------------------------------
			staffGroup := secured.Group("/", middleware.RequireRoles(admin, doctor, staff))
			{
				staffGroup.GET("/patients", patientHandler.List)
				staffGroup.POST("/patients", patientHandler.Create)
			}

			secured.GET("/services", serviceHandler.List)
			secured.POST("/services", middleware.RequireRoles(admin), serviceHandler.Create)
			secured.PATCH("/services/:id", middleware.RequireRoles(admin), serviceHandler.Update)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			appointments := secured.Group("/appointments", middleware.RequireRoles(admin, doctor, staff))
			{
				appointments.POST("", appointmentHandler.Create)
				appointments.GET("", appointmentHandler.ListByDate)
				appointments.GET("/month", appointmentHandler.ListByMonth)
				appointments.PATCH("/:id/confirm", appointmentHandler.Confirm)
				appointments.PATCH("/:id/cancel", appointmentHandler.Cancel)
				appointments.PATCH("/:id/complete", appointmentHandler.Complete)
				appointments.PATCH("/:id/no-show", appointmentHandler.NoShow)
				appointments.PATCH("/:id/reschedule", appointmentHandler.Reschedule)
			}

			// ------------------------------
			// ARV TREATMENTS
			// ------------------------------
			secured.GET("/regimens", middleware.RequireRoles(admin, doctor, staff), treatmentHandler.ListRegimens)
			secured.POST("/regimens", middleware.RequireRoles(admin), treatmentHandler.CreateRegimen)

			treatments := secured.Group("/treatments", middleware.RequireRoles(admin, doctor))
			{
				treatments.POST("", treatmentHandler.Create)
				treatments.GET("", treatmentHandler.List)
				treatments.GET("/:id", treatmentHandler.Get)
				treatments.PATCH("/:id/status", treatmentHandler.ChangeStatus)
				treatments.POST("/:id/adherence", treatmentHandler.RecordAdherence)
			}

			// ------------------------------
			// ADMIN
			// ------------------------------
			adminGroup := secured.Group("/admin", middleware.RequireRoles(admin))
			{
				adminGroup.POST("/users", authHandler.CreateUser)
				adminGroup.GET("/audit-logs", auditLogsHandler.List)
				adminGroup.GET("/dashboard", dashboardHandler.Get)
			}
		}
	}
}
