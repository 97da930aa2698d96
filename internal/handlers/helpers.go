package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// uintParam reads a positive numeric path parameter. On failure it writes a
// 400 and returns false.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Invalid "+name+".")
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads page and limit with the usual defaults.
func pageQuery(c *gin.Context, defLimit, maxLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defLimit)))
	if limit <= 0 || limit > maxLimit {
		limit = defLimit
	}

	return page, limit, (page - 1) * limit
}

func writeAudit(
	d *audit.Dispatcher,
	clinicID uint,
	userID uint,
	action string,
	entity string,
	entityID *uint,
	meta any,
) {
	if d == nil {
		return
	}

	var uid *uint
	if userID != 0 {
		uid = &userID
	}

	d.Dispatch(audit.Event{
		ClinicID: clinicID,
		UserID:   uid,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: meta,
	})
}

// --------------------------------------------------
// Clinic time zone
// --------------------------------------------------

func todayInClinic(clinic *models.Clinic) time.Time {
	return timezone.Day(timezone.NowIn(clinic.Timezone))
}

func parseDateInClinic(clinic *models.Clinic, s string) (time.Time, error) {
	return timezone.ParseDate(s, clinic.Timezone)
}
