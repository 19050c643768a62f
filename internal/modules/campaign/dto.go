package campaign

import (
	"time"

	"givehub/internal/domain"
)

type CreateCampaignRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Organizer   string    `json:"organizer" binding:"required"`
	CategoryID  int64     `json:"categoryId" binding:"required"`
	GoalAmount  int64     `json:"goalAmount" binding:"required,gte=100"`
	CoverImage  string    `json:"coverImage"`
	EndDate     time.Time `json:"endDate" binding:"required"`
}

type ListCampaignsQuery struct {
	CategoryID int64 `form:"categoryId"`
	Page       int   `form:"page,default=1"`
	Limit      int   `form:"limit,default=12"`
}

type ListCampaignsResponse struct {
	Items      []domain.Campaign `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}
