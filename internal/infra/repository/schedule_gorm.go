package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ScheduleGormRepository struct {
	db *gorm.DB
}

func NewScheduleGormRepository(db *gorm.DB) *ScheduleGormRepository {
	return &ScheduleGormRepository{db: db}
}

func (r *ScheduleGormRepository) GetWorkingHours(
	ctx context.Context,
	doctorID uint,
	weekday int,
) ([]availability.TimeRange, error) {

	var rows []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		Order("start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]availability.TimeRange, 0, len(rows))
	for _, wh := range rows {
		out = append(out, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
	}
	return out, nil
}

// Week returns the whole template grouped per weekday, Sunday first.
// Days without intervals are omitted.
func (r *ScheduleGormRepository) Week(ctx context.Context, doctorID uint) ([]schedule.Day, error) {
	var rows []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("weekday ASC, start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	days := []schedule.Day{}
	for _, wh := range rows {
		if n := len(days); n == 0 || days[n-1].Weekday != wh.Weekday {
			days = append(days, schedule.Day{Weekday: wh.Weekday})
		}
		last := &days[len(days)-1]
		last.Intervals = append(last.Intervals, availability.TimeRange{Start: wh.StartTime, End: wh.EndTime})
	}
	return days, nil
}

// ReplaceWeek swaps the whole template in one transaction.
func (r *ScheduleGormRepository) ReplaceWeek(ctx context.Context, doctorID uint, days []schedule.Day) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}

		var rows []models.WorkingHours
		for _, d := range days {
			for _, iv := range d.Intervals {
				rows = append(rows, models.WorkingHours{
					DoctorID:  doctorID,
					Weekday:   d.Weekday,
					StartTime: iv.Start,
					EndTime:   iv.End,
				})
			}
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// SeedDefaults writes the default template when the doctor has none.
// It reports whether anything was written.
func (r *ScheduleGormRepository) SeedDefaults(ctx context.Context, doctorID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WorkingHours{}).
		Where("doctor_id = ?", doctorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := r.ReplaceWeek(ctx, doctorID, schedule.DefaultTemplate()); err != nil {
		return false, err
	}
	return true, nil
}

var _ availability.ScheduleStore = (*ScheduleGormRepository)(nil)
