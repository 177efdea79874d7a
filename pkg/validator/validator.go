// Package validator registers the booking-specific tags on gin's validator.
package validator

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/vetbook-api/internal/slot"
)

var once sync.Once

// Register installs the `ophours` (HH:MM-HH:MM, start <= end) and `hhmm`
// (HH:MM) tags on gin's default validator engine. Safe to call repeatedly.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("ophours", validOperatingHours); err != nil {
		return fmt.Errorf("failed to register ophours: %w", err)
	}
	if err := v.RegisterValidation("hhmm", validClock); err != nil {
		return fmt.Errorf("failed to register hhmm: %w", err)
	}
	return nil
}

func validOperatingHours(fl validator.FieldLevel) bool {
	return slot.ValidOperatingHours(fl.Field().String())
}

func validClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 {
		return false
	}
	_, err := slot.ParseClock(s)
	return err == nil
}
