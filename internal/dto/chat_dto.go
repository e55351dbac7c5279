package dto

import "time"

// Pagination defaults and bounds are part of the wire contract.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	DefaultLimit    = 20
	MaxLimit        = 50
)

const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

type ListSessionsRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Search   string `query:"search"`
}

// Normalize applies the documented defaults and bounds in place.
func (r *ListSessionsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

type SessionResponse struct {
	Id                 uint       `json:"id"`
	UserId             *uint      `json:"userId,omitempty"`
	Title              string     `json:"title"`
	TitleAutoGenerated bool       `json:"titleAutoGenerated"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	LastMessageContent *string    `json:"lastMessageContent,omitempty"`
	LastMessageAt      *time.Time `json:"lastMessageAt,omitempty"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListSessionsResponse struct {
	Sessions   []*SessionResponse `json:"sessions"`
	Pagination PaginationMeta     `json:"pagination"`
}

type ListMessagesRequest struct {
	Limit     int    `query:"limit"`
	Cursor    *uint  `query:"cursor"`
	Direction string `query:"direction"`
}

func (r *ListMessagesRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Direction != DirectionBackward {
		r.Direction = DirectionForward
	}
}

type MessageResponse struct {
	Id             uint      `json:"id"`
	SessionId      uint      `json:"sessionId"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	ProviderStatus string    `json:"providerStatus,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ListMessagesResponse struct {
	Messages   []*MessageResponse `json:"messages"`
	NextCursor *uint              `json:"nextCursor"`
}

type CreateSessionRequest struct {
	Title *string `json:"title,omitempty"`
}

type AddMessageRequest struct {
	Content string `json:"content" validate:"required,min=1"`
	Sender  string `json:"sender" validate:"required,oneof=user ai"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,min=1"`
}

type GenerateAIResponse struct {
	Message  *MessageResponse `json:"message"`
	Session  *SessionResponse `json:"session"`
	Degraded bool             `json:"degraded"`
}
