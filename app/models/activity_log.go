package models

import "time"

const ActivityLogCollection = "activity_logs"

const (
	ACTION_APPROVE_PROVIDER             = "approve_provider"
	ACTION_REJECT_PROVIDER              = "reject_provider"
	ACTION_BULK_APPROVE                 = "bulk_approve"
	ACTION_BULK_REJECT                  = "bulk_reject"
	ACTION_CONFIRM_SUBSCRIPTION_PAYMENT = "confirm_subscription_payment"
	ACTION_CONFIRM_REGISTRATION_PAYMENT = "confirm_registration_payment"
	ACTION_UPDATE_ADMIN_NOTES           = "update_admin_notes"
)

// ActivityLog is one immutable entry of the admin audit trail.
type ActivityLog struct {
	ID         string                 `bson:"_id" json:"id"`
	Action     string                 `bson:"action" json:"action"`
	Details    map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	AdminID    string                 `bson:"adminId" json:"adminId"`
	AdminEmail string                 `bson:"adminEmail,omitempty" json:"adminEmail,omitempty"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
}

// Actor identifies the admin performing a mutation.
type Actor struct {
	ID    string
	Email string
}

// Tag is written to lastProcessedBy on provider updates.
func (a Actor) Tag() string {
	if a.Email != "" {
		return "admin:" + a.Email
	}
	return "admin"
}
