package apiclient

import (
	"context"
	"time"

	"career-counselor-be/internal/dto"
)

// EntryStatus tracks a timeline entry through the optimistic send
// lifecycle.
type EntryStatus string

const (
	StatusSending EntryStatus = "sending"
	StatusSent    EntryStatus = "sent"
	StatusFailed  EntryStatus = "failed"
)

// TimelineEntry is one rendered message. Optimistic entries carry a
// negative ClientID until the server assigns a real message id.
type TimelineEntry struct {
	ClientID int64
	Message  dto.MessageResponse
	Status   EntryStatus
}

// SessionTimeline is the client-side view of one conversation: the
// entries to render plus the pending input text.
type SessionTimeline struct {
	SessionID uint
	Entries   []TimelineEntry
	Input     string
}

// Refresh replaces the timeline entries from the paginated messages
// endpoint, keeping chronological order.
func (c *Client) Refresh(ctx context.Context, tl *SessionTimeline, limit int) error {
	res, err := c.ListMessages(ctx, tl.SessionID, limit, nil, dto.DirectionBackward)
	if err != nil {
		return err
	}
	entries := make([]TimelineEntry, 0, len(res.Messages))
	for _, m := range res.Messages {
		entries = append(entries, TimelineEntry{
			ClientID: int64(m.Id),
			Message:  *m,
			Status:   StatusSent,
		})
	}
	tl.Entries = entries
	return nil
}

// SendMessage performs an optimistic send. The message appears in the
// timeline immediately with a synthetic id and "sending" status, and the
// input is cleared before the network round trip. On persistence failure
// the timeline is restored to its pre-send snapshot and the typed
// content is put back in the input. A persisted message is never rolled
// back: if the follow-up AI generation fails, the user message stays and
// the error is returned for the caller to surface.
func (c *Client) SendMessage(ctx context.Context, tl *SessionTimeline, content string) (*dto.GenerateAIResponse, error) {
	// Cancel any refetch still in flight for this session so a stale
	// response cannot clobber the optimistic entry.
	c.cancelInflight(tl.SessionID)

	snapshot := make([]TimelineEntry, len(tl.Entries))
	copy(snapshot, tl.Entries)

	c.mu.Lock()
	clientID := c.nextClientID
	c.nextClientID--
	c.mu.Unlock()

	optimistic := TimelineEntry{
		ClientID: clientID,
		Message: dto.MessageResponse{
			SessionId: tl.SessionID,
			Sender:    "user",
			Content:   content,
			CreatedAt: time.Now(),
		},
		Status: StatusSending,
	}
	tl.Entries = append(tl.Entries, optimistic)
	tl.Input = ""

	persisted, err := c.AddMessage(ctx, tl.SessionID, &dto.AddMessageRequest{
		Content: content,
		Sender:  "user",
	})
	if err != nil {
		// Phase 1 failed: restore the snapshot verbatim and hand the
		// typed content back.
		tl.Entries = snapshot
		tl.Input = content
		return nil, err
	}

	// Swap the synthetic entry for the persisted message.
	for i := range tl.Entries {
		if tl.Entries[i].ClientID == clientID {
			tl.Entries[i] = TimelineEntry{
				ClientID: int64(persisted.Id),
				Message:  *persisted,
				Status:   StatusSent,
			}
			break
		}
	}

	// Phase 2: background refetch plus AI generation. A failure here
	// leaves the persisted message in place.
	refetchCtx, cancel := context.WithCancel(ctx)
	c.trackInflight(tl.SessionID, cancel)
	defer c.clearInflight(tl.SessionID, cancel)

	if err := c.Refresh(refetchCtx, tl, 0); err != nil && refetchCtx.Err() == nil {
		return nil, err
	}

	gen, err := c.Generate(ctx, tl.SessionID)
	if err != nil {
		return nil, err
	}
	tl.Entries = append(tl.Entries, TimelineEntry{
		ClientID: int64(gen.Message.Id),
		Message:  *gen.Message,
		Status:   StatusSent,
	})
	return gen, nil
}

func (c *Client) cancelInflight(sessionID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.inflight[sessionID]; ok {
		cancel()
		delete(c.inflight, sessionID)
	}
}

func (c *Client) trackInflight(sessionID uint, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[sessionID] = cancel
}

func (c *Client) clearInflight(sessionID uint, cancel context.CancelFunc) {
	c.mu.Lock()
	delete(c.inflight, sessionID)
	c.mu.Unlock()
	cancel()
}
