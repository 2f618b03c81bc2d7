package dynamo

// DynamoDB attribute and index names shared across repos.
const (
	fieldUpdatedAt   = "updated_at"
	fieldVerified    = "verified"
	fieldStatus      = "status"
	fieldPending     = "pending"
	fieldSentAt      = "sent_at"
	fieldRatingSum   = "rating_sum"
	fieldReviewCount = "review_count"
	fieldImages      = "images"

	indexUserID       = "user_id-index"
	indexUserCreated  = "user_id-created_at-index"
	indexReminderID   = "reminder_id-index"
	indexPendingFire  = "pending-fire_at-index"
	indexStatusEndDay = "status-end_date-index"
)
