package entity

import "time"

type User struct {
	Id           uint
	Email        string
	Name         *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
