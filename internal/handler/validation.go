package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var timeSlotPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Booking payloads carry slot times as zero-padded "HH:MM" strings; the
// binding layer rejects anything else before it reaches a service.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
			return timeSlotPattern.MatchString(fl.Field().String())
		})
	}
}
