package domain

import "time"

const (
	ReminderActive    = "active"
	ReminderCompleted = "completed"
)

// DateLayout is the calendar-date format used for reminder ranges.
const DateLayout = "2006-01-02"

// Reminder is a recurring medicine schedule owned by one user.
// StartDate and EndDate are inclusive calendar dates in Timezone.
type Reminder struct {
	ReminderID string    `json:"id" dynamodbav:"reminder_id"`
	UserID     string    `json:"userId" dynamodbav:"user_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Image      string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	StartDate  string    `json:"startDate" dynamodbav:"start_date"`
	EndDate    string    `json:"endDate" dynamodbav:"end_date"`
	Times      []string  `json:"times" dynamodbav:"times"`
	Days       []string  `json:"days" dynamodbav:"days"`
	Timezone   string    `json:"timezone" dynamodbav:"timezone"`
	Notes      string    `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	Status     string    `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// CompletedAt reports whether the reminder's range has ended as of now.
func (r *Reminder) CompletedAt(now time.Time) bool {
	if r.Status == ReminderCompleted {
		return true
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		loc = time.UTC
	}
	end, err := time.ParseInLocation(DateLayout, r.EndDate, loc)
	if err != nil {
		return false
	}
	return !now.Before(end.AddDate(0, 0, 1))
}

// ReminderRequest is the body for creating or replacing a reminder.
// Image may be a URL or a base64 data URI; data URIs are uploaded to object storage.
type ReminderRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Image     string   `json:"image"`
	StartDate string   `json:"startDate" validate:"required"`
	EndDate   string   `json:"endDate" validate:"required"`
	Times     []string `json:"times" validate:"required,min=1,max=3,dive,omitempty,hhmm"`
	Days      []string `json:"days" validate:"max=7,dive,oneof=Sun Mon Tue Wed Thu Fri Sat"`
	Timezone  string   `json:"timezone"`
	Notes     string   `json:"notes" validate:"max=500"`
}

// Occurrence is one scheduled delivery. Reminder occurrences use the stable id
// "<reminder_id>#<YYYY-MM-DD>#<slot>"; ad-hoc ones use a ULID and no reminder id.
// Pending is "1" until delivery and removed afterwards, which keeps the due index sparse.
type Occurrence struct {
	OccurrenceID string     `json:"id" dynamodbav:"occurrence_id"`
	ReminderID   string     `json:"reminderId,omitempty" dynamodbav:"reminder_id,omitempty"`
	UserID       string     `json:"userId" dynamodbav:"user_id"`
	Title        string     `json:"title" dynamodbav:"title"`
	Body         string     `json:"body" dynamodbav:"body"`
	FireAt       time.Time  `json:"fireAt" dynamodbav:"fire_at"`
	Pending      string     `json:"-" dynamodbav:"pending,omitempty"`
	SentAt       *time.Time `json:"sentAt,omitempty" dynamodbav:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

// PendingFlag marks an occurrence as awaiting delivery.
const PendingFlag = "1"

// PushSubscription is a browser Web Push endpoint, unique by endpoint.
type PushSubscription struct {
	Endpoint  string    `json:"endpoint" dynamodbav:"endpoint" validate:"required,url"`
	Keys      PushKeys  `json:"keys" dynamodbav:"keys" validate:"required"`
	UserID    string    `json:"userId,omitempty" dynamodbav:"user_id"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type PushKeys struct {
	P256dh string `json:"p256dh" dynamodbav:"p256dh" validate:"required"`
	Auth   string `json:"auth" dynamodbav:"auth" validate:"required"`
}

// ScheduleRequest creates an ad-hoc notification at Time.
type ScheduleRequest struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Body         string            `json:"body" validate:"required,max=1000"`
	Time         time.Time         `json:"time" validate:"required"`
	Subscription *PushSubscription `json:"subscription"`
}

// PushMessage is the JSON payload delivered to the service worker.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}
