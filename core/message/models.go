package message

import (
	"sort"
	"time"

	"github.com/trezcool/ratiba/core"
)

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"message"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// Sender is the display form of the identity that sent a message.
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// View is a Message with its sender resolved; Sender is nil if the identity is gone.
type View struct {
	ID          string    `json:"id"`
	Sender      *Sender   `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"message"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewMessage is what a student sends to write to a teacher.
type NewMessage struct {
	RecipientID string `json:"recipientId" validate:"required,notblank"`
	Text        string `json:"message" validate:"required,notblank"`
}

func (nm *NewMessage) Clean() {
	nm.RecipientID = core.CleanString(nm.RecipientID)
	nm.Text = core.CleanString(nm.Text)
}

// Less orders unread messages first, then the most recent first.
func Less(a, b View) bool {
	if a.IsRead != b.IsRead {
		return !a.IsRead
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Sort sorts views in place with Less.
func Sort(views []View) {
	sort.SliceStable(views, func(i, j int) bool { return Less(views[i], views[j]) })
}
