package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type AvailabilityInput struct {
	ClinicID uint
	DoctorID uint
	Date     string

	// 0 picks the service duration, then the clinic default.
	SlotMinutes int
	ServiceID   uint
	Granular    bool
}

type GetAvailability struct {
	repo        domain.Repository
	engine      SlotComputer
	cache       cache.Availability
	defaultSlot int
}

func NewGetAvailability(
	repo domain.Repository,
	engine SlotComputer,
	slotsCache cache.Availability,
	defaultSlot int,
) *GetAvailability {
	if defaultSlot <= 0 {
		defaultSlot = availability.DefaultSlotMinutes
	}
	return &GetAvailability{
		repo:        repo,
		engine:      engine,
		cache:       slotsCache,
		defaultSlot: defaultSlot,
	}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) (*dto.AvailabilityDTO, error) {

	clinic, err := uc.repo.GetClinicByID(ctx, in.ClinicID)
	if err != nil {
		return nil, notFoundAs(err, "clinic_not_found")
	}

	if _, err := uc.repo.GetDoctor(ctx, in.ClinicID, in.DoctorID); err != nil {
		return nil, notFoundAs(err, "doctor_not_found")
	}

	date, err := timezone.ParseDate(in.Date, clinic.Timezone)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date")
	}

	slotMinutes := in.SlotMinutes
	if slotMinutes == 0 && in.ServiceID != 0 {
		service, err := uc.repo.GetService(ctx, in.ClinicID, in.ServiceID)
		if err != nil {
			return nil, notFoundAs(err, "service_not_found")
		}
		slotMinutes = service.DurationMin
	}
	if slotMinutes == 0 {
		slotMinutes = clinic.SlotMinutes
	}
	if slotMinutes == 0 {
		slotMinutes = uc.defaultSlot
	}

	key := cache.Key{
		DoctorID:    in.DoctorID,
		Date:        date.Format(dateLayout),
		SlotMinutes: slotMinutes,
		Granular:    in.Granular,
	}

	key, day, hit := uc.cache.Get(ctx, key)
	if !hit {
		day, err = uc.engine.ComputeAvailableSlots(ctx, availability.Request{
			DoctorID:    in.DoctorID,
			Date:        date,
			SlotMinutes: slotMinutes,
			Granular:    in.Granular,
		})
		if err != nil {
			return nil, err
		}
		uc.cache.Set(ctx, key, day)
	}

	return &dto.AvailabilityDTO{
		DoctorID:    day.DoctorID,
		Date:        day.Date,
		SlotMinutes: slotMinutes,
		Granular:    in.Granular,
		Slots:       day.Slots,
	}, nil
}
