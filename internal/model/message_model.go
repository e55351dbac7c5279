package model

import "time"

// Composite index (session_id, created_at) backs the ordered pagination
// queries.
type Message struct {
	Id             uint      `gorm:"primaryKey"`
	SessionId      uint      `gorm:"not null;index:idx_messages_session_created"`
	Sender         string    `gorm:"type:varchar(10);not null"`
	Content        string    `gorm:"type:text;not null"`
	ProviderStatus string    `gorm:"type:varchar(20)"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_session_created"`
}

func (Message) TableName() string {
	return "messages"
}
