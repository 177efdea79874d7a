package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type booking struct {
	Hours string `validate:"ophours"`
	Time  string `validate:"hhmm"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	tests := []struct {
		name  string
		input booking
		ok    bool
	}{
		{"valid", booking{Hours: "09:00-17:00", Time: "09:30"}, true},
		{"hours reversed", booking{Hours: "17:00-09:00", Time: "09:30"}, false},
		{"hours malformed", booking{Hours: "9-5", Time: "09:30"}, false},
		{"time with seconds", booking{Hours: "09:00-17:00", Time: "09:30:00"}, false},
		{"time out of range", booking{Hours: "09:00-17:00", Time: "24:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegisterOnGinEngine(t *testing.T) {
	assert.NoError(t, Register())
	assert.NoError(t, Register())
}
