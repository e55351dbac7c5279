package specification

import "gorm.io/gorm"

type BySessionID struct {
	SessionID uint
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// TitleSearch filters sessions by a case-insensitive title substring. The
// pattern is always bound as a parameter, never concatenated into SQL.
type TitleSearch struct {
	Query string
}

func (s TitleSearch) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ?", pattern)
}

// IDAfter / IDBefore are the two halves of the message cursor.

type IDAfter struct {
	ID uint
}

func (s IDAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id > ?", s.ID)
}

type IDBefore struct {
	ID uint
}

func (s IDBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id < ?", s.ID)
}

// ChronologicalOrder orders messages by (created_at, id) so ties on the
// timestamp fall back to the monotonically assigned id.
type ChronologicalOrder struct {
	Desc bool
}

func (s ChronologicalOrder) Apply(db *gorm.DB) *gorm.DB {
	if s.Desc {
		return db.Order("created_at DESC, id DESC")
	}
	return db.Order("created_at ASC, id ASC")
}
