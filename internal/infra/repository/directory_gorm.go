package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// DirectoryGormRepository resolves clinics and doctors from request
// identifiers (public slug, logged-in user).
type DirectoryGormRepository struct {
	db *gorm.DB
}

func NewDirectoryGormRepository(db *gorm.DB) *DirectoryGormRepository {
	return &DirectoryGormRepository{db: db}
}

func (r *DirectoryGormRepository) ClinicBySlug(ctx context.Context, slug string) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&clinic).Error; err != nil {
		return nil, err
	}
	return &clinic, nil
}

// DoctorIDForUser returns gorm.ErrRecordNotFound when the account is not
// linked to a doctor of the clinic.
func (r *DirectoryGormRepository) DoctorIDForUser(ctx context.Context, clinicID, userID uint) (uint, error) {
	var doctor models.Doctor
	if err := r.db.WithContext(ctx).
		Select("id").
		Where("clinic_id = ? AND user_id = ?", clinicID, userID).
		First(&doctor).Error; err != nil {
		return 0, err
	}
	return doctor.ID, nil
}
