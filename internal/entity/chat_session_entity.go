package entity

import "time"

type ChatSession struct {
	Id     uint
	UserId *uint
	Title  string
	// TitleAutoGenerated stays true until a human title arrives, either at
	// creation or through rename. The one-shot AI auto-title only fires
	// while this is set.
	TitleAutoGenerated bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
