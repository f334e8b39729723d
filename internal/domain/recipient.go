package domain

import "time"

// RecipientStatus tracks a recipient's progress through the outreach funnel.
type RecipientStatus string

const (
	RecipientUnconfirmed     RecipientStatus = "unconfirmed"
	RecipientDMSent          RecipientStatus = "dm_sent"
	RecipientDMReplied       RecipientStatus = "dm_replied"
	RecipientFormSubmitted   RecipientStatus = "form_submitted"
	RecipientUploadWaiting   RecipientStatus = "upload_waiting"
	RecipientUploadCompleted RecipientStatus = "upload_completed"
)

// ReviewStatus is the manual screening decision for a recipient.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Recipient is a tracked social-media account eligible for outreach.
// Only review_status=approved AND status=unconfirmed recipients are
// dispatch-eligible; eligibility is re-evaluated fresh on every tick.
type Recipient struct {
	ID            int64           `json:"id" db:"id"`
	Username      string          `json:"username" db:"username"`
	Nickname      string          `json:"nickname" db:"nickname"`
	Country       string          `json:"country" db:"country"`
	Status        RecipientStatus `json:"status" db:"status"`
	ReviewStatus  ReviewStatus    `json:"review_status" db:"review_status"`
	ReviewScore   int             `json:"review_score" db:"review_score"`
	FollowerCount int64           `json:"follower_count" db:"follower_count"`
	ProfileURL    string          `json:"profile_url" db:"profile_url"`
	ReviewedAt    *time.Time      `json:"reviewed_at" db:"reviewed_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
