package domain

import "time"

type CampaignStatus string

const (
	CampaignPending  CampaignStatus = "pending"
	CampaignApproved CampaignStatus = "approved"
	CampaignRejected CampaignStatus = "rejected"
	CampaignClosed   CampaignStatus = "closed"
)

// Campaign aggregates are mutated only by the donation settlement path.
// RaisedAmount must always equal the sum of successful donation amounts and
// DonorCount their count; both are monotonically non-decreasing.
type Campaign struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"type:varchar(200);not null" json:"title" validate:"required"`
	Description string `gorm:"type:text;not null" json:"description" validate:"required"`
	Organizer   string `gorm:"type:varchar(120);not null" json:"organizer"`
	OrganizerID int64  `gorm:"index;not null" json:"organizer_id"`
	CategoryID  int64  `gorm:"index;not null" json:"category_id" validate:"required"`

	GoalAmount   int64 `gorm:"not null" json:"goal_amount" validate:"required,gte=100"`
	RaisedAmount int64 `gorm:"not null;default:0" json:"raised_amount"`
	DonorCount   int64 `gorm:"not null;default:0" json:"donor_count"`

	CoverImage string         `gorm:"type:text" json:"cover_image"`
	Status     CampaignStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	EndDate    time.Time      `gorm:"not null" json:"end_date" validate:"required"`

	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedBy      *int64     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`

	Views  int64 `gorm:"not null;default:0" json:"views"`
	Shares int64 `gorm:"not null;default:0" json:"shares"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Campaign) TableName() string { return "campaigns" }
