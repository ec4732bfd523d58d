package models

import "time"

type Announcement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	TargetGroup    string    `gorm:"size:32;not null" json:"target_group"`
	TargetID       *uint     `json:"target_id,omitempty"`
	IsUrgent       bool      `gorm:"not null;default:false" json:"is_urgent"`
	RecipientCount int       `gorm:"not null;default:0" json:"recipient_count"`
	SentCount      int       `gorm:"not null;default:0" json:"sent_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Recipients []AnnouncementRecipient `gorm:"foreignKey:AnnouncementID" json:"recipients,omitempty"`
}

func (Announcement) TableName() string {
	return "announcements"
}

// AnnouncementRecipient is written as queued before any send is attempted and
// then carries the outcome of each delivery attempt.
type AnnouncementRecipient struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AnnouncementID uint       `gorm:"not null;uniqueIndex:idx_announcement_user" json:"announcement_id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_announcement_user" json:"user_id"`
	Email          string     `gorm:"size:255;not null" json:"email"`
	Status         string     `gorm:"size:20;not null;default:'queued';index" json:"status"` // queued | sent | failed
	Attempts       int        `gorm:"not null;default:0" json:"attempts"`
	LastError      string     `gorm:"size:512" json:"last_error,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Announcement *Announcement `gorm:"foreignKey:AnnouncementID" json:"-"`
}

func (AnnouncementRecipient) TableName() string {
	return "announcement_recipients"
}
