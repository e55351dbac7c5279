package model

import "time"

type ChatSession struct {
	Id                 uint      `gorm:"primaryKey"`
	UserId             *uint     `gorm:"index"`
	Title              string    `gorm:"type:varchar(255);not null"`
	TitleAutoGenerated bool      `gorm:"not null;default:true"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
