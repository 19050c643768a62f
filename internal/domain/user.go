package domain

import "time"

type UserRole string

const (
	RoleDonor     UserRole = "donor"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email" validate:"required,email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Name         string    `gorm:"type:varchar(120);not null" json:"name"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Role         UserRole  `gorm:"type:varchar(20);default:'donor'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
