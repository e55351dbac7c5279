package entity

import "time"

type MessageSender string

const (
	MessageSenderUser MessageSender = "user"
	MessageSenderAI   MessageSender = "ai"
)

// Provider status values recorded on AI messages. User messages carry an
// empty status.
const (
	ProviderStatusOK       = "ok"
	ProviderStatusFallback = "fallback"
)

type Message struct {
	Id             uint
	SessionId      uint
	Sender         MessageSender
	Content        string
	ProviderStatus string
	CreatedAt      time.Time
}
