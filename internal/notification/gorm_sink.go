package notification

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

var ErrNoRecipient = errors.New("notification has no recipient")

type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Notify(ctx context.Context, msg Message) error {
	if msg.UserID == nil && msg.PatientID == nil {
		return ErrNoRecipient
	}

	row := models.Notification{
		ClinicID:      msg.ClinicID,
		UserID:        msg.UserID,
		PatientID:     msg.PatientID,
		AppointmentID: msg.AppointmentID,
		Kind:          msg.Kind,
		Title:         msg.Title,
		Body:          msg.Body,
	}

	return s.db.WithContext(ctx).Create(&row).Error
}

var _ Sink = (*GormSink)(nil)
