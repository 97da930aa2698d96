package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.Clinic{},
		&models.User{},
		&models.Doctor{},
		&models.Patient{},
		&models.MedicalService{},
		&models.WorkingHours{},
		&models.Appointment{},
		&models.AuditLog{},
		&models.Notification{},
		&models.ARVRegimen{},
		&models.Treatment{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// One occupying appointment per doctor, day and start time.
	if err := db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_doctor_slot
        ON appointments (doctor_id, date, start_time)
        WHERE status <> 'cancelled'
    `).Error; err != nil {
		return nil, fmt.Errorf("create slot index: %w", err)
	}

	if res := db.Exec(`
        UPDATE clinics
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, cfg.DefaultTimezone); res.Error != nil {
		log.Warn("backfill clinic timezone failed", zap.Error(res.Error))
	}

	log.Info("database ready")
	return db, nil
}
