package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/medtrax-api/internal/pkg/validate"
)

// MetricKind names one of the tracked health series.
type MetricKind string

const (
	MetricWeight   MetricKind = "weight"
	MetricHormone  MetricKind = "hormone"
	MetricHeadache MetricKind = "headache"
	MetricStress   MetricKind = "stress"
	MetricStomach  MetricKind = "stomach"
	MetricSleep    MetricKind = "sleep"
	MetricPeriod   MetricKind = "period"
)

// MetricKinds lists every supported kind in route order.
var MetricKinds = []MetricKind{MetricWeight, MetricHormone, MetricHeadache, MetricStress, MetricStomach, MetricSleep, MetricPeriod}

// ParseMetricKind accepts the route segment for a kind. "stomach-issues" is kept as an alias.
func ParseMetricKind(s string) (MetricKind, error) {
	switch s {
	case "weight", "hormone", "headache", "stress", "stomach", "sleep", "period":
		return MetricKind(s), nil
	case "hormones":
		return MetricHormone, nil
	case "stomach-issues":
		return MetricStomach, nil
	}
	return "", fmt.Errorf("unknown metric kind %q: %w", s, ErrBadRequest)
}

// Metric is the payload of a health entry. The set of implementations is closed.
type Metric interface {
	Kind() MetricKind
	Validate() error
	metric()
}

type WeightMetric struct {
	Weight float64 `json:"weight" dynamodbav:"weight" validate:"gt=0"`
	Unit   string  `json:"unit" dynamodbav:"unit" validate:"oneof=kg lbs"`
}

type HormoneMetric struct {
	FSH             *float64 `json:"FSH,omitempty" dynamodbav:"fsh,omitempty" validate:"omitempty,gte=0"`
	LH              *float64 `json:"LH,omitempty" dynamodbav:"lh,omitempty" validate:"omitempty,gte=0"`
	Testosterone    *float64 `json:"testosterone,omitempty" dynamodbav:"testosterone,omitempty" validate:"omitempty,gte=0"`
	Thyroid         *float64 `json:"thyroid,omitempty" dynamodbav:"thyroid,omitempty" validate:"omitempty,gte=0"`
	Prolactin       *float64 `json:"prolactin,omitempty" dynamodbav:"prolactin,omitempty" validate:"omitempty,gte=0"`
	AvgBloodGlucose *float64 `json:"avgBloodGlucose,omitempty" dynamodbav:"avg_blood_glucose,omitempty" validate:"omitempty,gte=0"`
}

type HeadacheMetric struct {
	Severity string   `json:"severity" dynamodbav:"severity" validate:"required,oneof=mild moderate severe"`
	Duration *float64 `json:"duration,omitempty" dynamodbav:"duration,omitempty" validate:"omitempty,gte=0"`
	Triggers []string `json:"triggers" dynamodbav:"triggers" validate:"max=20,dive,max=100"`
	Notes    string   `json:"notes,omitempty" dynamodbav:"notes,omitempty" validate:"max=500"`
}

type StressMetric struct {
	Severity      string   `json:"severity" dynamodbav:"severity" validate:"required,oneof=mild moderate severe"`
	Triggers      []string `json:"triggers" dynamodbav:"triggers" validate:"max=20,dive,max=100"`
	CopingMethods []string `json:"copingMethods" dynamodbav:"coping_methods" validate:"max=20,dive,max=100"`
	Notes         string   `json:"notes,omitempty" dynamodbav:"notes,omitempty" validate:"max=500"`
}

type StomachMetric struct {
	Severity string   `json:"severity" dynamodbav:"severity" validate:"required,oneof=mild moderate severe"`
	Symptoms []string `json:"symptoms" dynamodbav:"symptoms" validate:"max=7,dive,oneof=nausea vomiting pain bloating cramps indigestion other"`
	Triggers []string `json:"triggers" dynamodbav:"triggers" validate:"max=20,dive,max=100"`
	Notes    string   `json:"notes,omitempty" dynamodbav:"notes,omitempty" validate:"max=500"`
}

type SleepMetric struct {
	HoursSlept   float64 `json:"hoursSlept" dynamodbav:"hours_slept" validate:"gt=0,lte=24"`
	SleepQuality string  `json:"sleepQuality" dynamodbav:"sleep_quality" validate:"oneof=poor fair good excellent"`
}

// PeriodMetric records the start of the last cycle. The three estimate dates are
// derived by Validate and stored with the entry.
type PeriodMetric struct {
	LastPeriodStart    string `json:"lastPeriodStart" dynamodbav:"last_period_start" validate:"required,datetime=2006-01-02"`
	PeriodDuration     int    `json:"periodDuration" dynamodbav:"period_duration" validate:"gte=1,lte=10"`
	CycleLength        int    `json:"cycleLength" dynamodbav:"cycle_length" validate:"gte=20,lte=45"`
	EstimatedOvulation string `json:"estimatedOvulation" dynamodbav:"estimated_ovulation"`
	NextPeriodStart    string `json:"nextPeriodStart" dynamodbav:"next_period_start"`
	NextPeriodEnd      string `json:"nextPeriodEnd" dynamodbav:"next_period_end"`
}

const (
	DefaultPeriodDuration = 5
	DefaultCycleLength    = 28
)

func (*WeightMetric) Kind() MetricKind   { return MetricWeight }
func (*HormoneMetric) Kind() MetricKind  { return MetricHormone }
func (*HeadacheMetric) Kind() MetricKind { return MetricHeadache }
func (*StressMetric) Kind() MetricKind   { return MetricStress }
func (*StomachMetric) Kind() MetricKind  { return MetricStomach }
func (*SleepMetric) Kind() MetricKind    { return MetricSleep }
func (*PeriodMetric) Kind() MetricKind   { return MetricPeriod }

func (*WeightMetric) metric()   {}
func (*HormoneMetric) metric()  {}
func (*HeadacheMetric) metric() {}
func (*StressMetric) metric()   {}
func (*StomachMetric) metric()  {}
func (*SleepMetric) metric()    {}
func (*PeriodMetric) metric()   {}

func (m *WeightMetric) Validate() error {
	if m.Unit == "" {
		m.Unit = "kg"
	}
	return structErr(m)
}

func (m *HormoneMetric) Validate() error {
	if m.FSH == nil && m.LH == nil && m.Testosterone == nil && m.Thyroid == nil && m.Prolactin == nil && m.AvgBloodGlucose == nil {
		return fmt.Errorf("at least one hormone value is required: %w", ErrBadRequest)
	}
	return structErr(m)
}

func (m *HeadacheMetric) Validate() error { return structErr(m) }
func (m *StressMetric) Validate() error   { return structErr(m) }
func (m *StomachMetric) Validate() error  { return structErr(m) }

func (m *SleepMetric) Validate() error {
	if m.SleepQuality == "" {
		m.SleepQuality = "fair"
	}
	return structErr(m)
}

// Validate fills the default duration and cycle length, checks bounds and
// computes the ovulation and next-period estimates.
func (m *PeriodMetric) Validate() error {
	if m.PeriodDuration == 0 {
		m.PeriodDuration = DefaultPeriodDuration
	}
	if m.CycleLength == 0 {
		m.CycleLength = DefaultCycleLength
	}
	if err := structErr(m); err != nil {
		return err
	}
	start, err := time.Parse(DateLayout, m.LastPeriodStart)
	if err != nil {
		return fmt.Errorf("lastPeriodStart must be YYYY-MM-DD: %w", ErrBadRequest)
	}
	next := start.AddDate(0, 0, m.CycleLength)
	m.EstimatedOvulation = start.AddDate(0, 0, m.CycleLength/2).Format(DateLayout)
	m.NextPeriodStart = next.Format(DateLayout)
	m.NextPeriodEnd = next.AddDate(0, 0, m.PeriodDuration-1).Format(DateLayout)
	return nil
}

func structErr(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrBadRequest)
	}
	return nil
}

// DecodeMetric unmarshals a JSON payload into the concrete type for kind.
func DecodeMetric(kind MetricKind, data []byte) (Metric, error) {
	var m Metric
	switch kind {
	case MetricWeight:
		m = &WeightMetric{}
	case MetricHormone:
		m = &HormoneMetric{}
	case MetricHeadache:
		m = &HeadacheMetric{}
	case MetricStress:
		m = &StressMetric{}
	case MetricStomach:
		m = &StomachMetric{}
	case MetricSleep:
		m = &SleepMetric{}
	case MetricPeriod:
		m = &PeriodMetric{}
	default:
		return nil, fmt.Errorf("unknown metric kind %q: %w", kind, ErrBadRequest)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, ErrBadRequest)
	}
	return m, nil
}

// HealthEntry is one immutable record in a user's series for a single kind.
// PK user_kind = "<user_id>#<kind>", SK entry_key = "<RFC3339 date>#<entry_id>",
// so a descending query yields date order with ties broken by entry id.
// Exactly one payload pointer is set, matching Kind.
type HealthEntry struct {
	UserKind  string     `json:"-" dynamodbav:"user_kind"`
	EntryKey  string     `json:"-" dynamodbav:"entry_key"`
	EntryID   string     `json:"id" dynamodbav:"entry_id"`
	UserID    string     `json:"userId" dynamodbav:"user_id"`
	Kind      MetricKind `json:"kind" dynamodbav:"kind"`
	Date      time.Time  `json:"date" dynamodbav:"date"`
	CreatedAt time.Time  `json:"createdAt" dynamodbav:"created_at"`

	Weight   *WeightMetric   `json:"-" dynamodbav:"weight,omitempty"`
	Hormone  *HormoneMetric  `json:"-" dynamodbav:"hormone,omitempty"`
	Headache *HeadacheMetric `json:"-" dynamodbav:"headache,omitempty"`
	Stress   *StressMetric   `json:"-" dynamodbav:"stress,omitempty"`
	Stomach  *StomachMetric  `json:"-" dynamodbav:"stomach,omitempty"`
	Sleep    *SleepMetric    `json:"-" dynamodbav:"sleep,omitempty"`
	Period   *PeriodMetric   `json:"-" dynamodbav:"period,omitempty"`
}

// HealthEntryKey builds the partition value for a user's series.
func HealthEntryKey(userID string, kind MetricKind) string {
	return userID + "#" + string(kind)
}

// SetMetric stores m in the payload slot for its kind.
func (e *HealthEntry) SetMetric(m Metric) {
	e.Kind = m.Kind()
	switch v := m.(type) {
	case *WeightMetric:
		e.Weight = v
	case *HormoneMetric:
		e.Hormone = v
	case *HeadacheMetric:
		e.Headache = v
	case *StressMetric:
		e.Stress = v
	case *StomachMetric:
		e.Stomach = v
	case *SleepMetric:
		e.Sleep = v
	case *PeriodMetric:
		e.Period = v
	}
}

// Metric returns the payload for the entry's kind, or nil if the slot is empty.
func (e *HealthEntry) Metric() Metric {
	switch e.Kind {
	case MetricWeight:
		if e.Weight != nil {
			return e.Weight
		}
	case MetricHormone:
		if e.Hormone != nil {
			return e.Hormone
		}
	case MetricHeadache:
		if e.Headache != nil {
			return e.Headache
		}
	case MetricStress:
		if e.Stress != nil {
			return e.Stress
		}
	case MetricStomach:
		if e.Stomach != nil {
			return e.Stomach
		}
	case MetricSleep:
		if e.Sleep != nil {
			return e.Sleep
		}
	case MetricPeriod:
		if e.Period != nil {
			return e.Period
		}
	}
	return nil
}

// MarshalJSON flattens the payload fields next to the entry metadata.
func (e HealthEntry) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if m := e.Metric(); m != nil {
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	out["id"] = e.EntryID
	out["userId"] = e.UserID
	out["kind"] = e.Kind
	out["date"] = e.Date
	out["createdAt"] = e.CreatedAt
	return json.Marshal(out)
}
