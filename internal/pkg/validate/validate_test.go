package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type slotReq struct {
	Times []string `validate:"required,min=1,max=3,dive,hhmm"`
	Email string   `validate:"required,email"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(slotReq{Times: []string{"08:00", "23:59"}, Email: "a@b.com"}))
}

func TestStruct_BadClockTime(t *testing.T) {
	err := Struct(slotReq{Times: []string{"24:00"}, Email: "a@b.com"})
	assert.ErrorContains(t, err, "hhmm")
}

func TestStruct_TooManyTimes(t *testing.T) {
	err := Struct(slotReq{Times: []string{"01:00", "02:00", "03:00", "04:00"}, Email: "a@b.com"})
	assert.ErrorContains(t, err, "max")
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(slotReq{})
	assert.ErrorContains(t, err, "field 'Times' failed 'required'")
	assert.ErrorContains(t, err, "field 'Email' failed 'required'")
}

func TestClockTime(t *testing.T) {
	assert.True(t, ClockTime("00:00"))
	assert.True(t, ClockTime("19:45"))
	assert.False(t, ClockTime("7:45"))
	assert.False(t, ClockTime("12:60"))
}
