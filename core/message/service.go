package message

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError(errors.New("message not found"))
	ErrRecipientNotFound = core.NewNotFoundError(errors.New("recipient not found"))
	ErrNotRecipient      = core.NewForbiddenError(errors.New("only the recipient can mark a message as read"))
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		GetMessageByID(ctx context.Context, id string) (Message, error)
		FilterMessagesByRecipient(ctx context.Context, recipientID string) ([]Message, error)
		// MarkMessageRead sets isRead on the message with id if it is addressed to recipientID.
		// It returns ErrNotFound when no such message exists for that recipient.
		MarkMessageRead(ctx context.Context, id, recipientID string, at time.Time) (Message, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

func NewService(repo Repository, usrRepo user.Repository) *Service {
	return &Service{repo: repo, usrRepo: usrRepo}
}

// Send stores an unread message from senderID to an existing identity.
func (svc *Service) Send(ctx context.Context, senderID string, nm NewMessage) (Message, error) {
	nm.Clean()
	if _, err := svc.usrRepo.GetUserByID(ctx, nm.RecipientID); err != nil {
		if err == user.ErrNotFound {
			return Message{}, ErrRecipientNotFound
		}
		return Message{}, errors.Wrap(err, "finding recipient")
	}

	now := time.Now().UTC()
	return svc.repo.CreateMessage(ctx, Message{
		SenderID:    senderID,
		RecipientID: nm.RecipientID,
		Text:        nm.Text,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// ListFor returns the messages addressed to recipientID, unread first.
func (svc *Service) ListFor(ctx context.Context, recipientID string) ([]View, error) {
	msgs, err := svc.repo.FilterMessagesByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]*Sender)
	views := make([]View, 0, len(msgs))
	for _, m := range msgs {
		sender, ok := senders[m.SenderID]
		if !ok {
			usr, err := svc.usrRepo.GetUserByID(ctx, m.SenderID)
			switch err {
			case nil:
				sender = &Sender{ID: usr.ID, Name: usr.Name}
			case user.ErrNotFound:
			default:
				return nil, errors.Wrap(err, "resolving sender")
			}
			senders[m.SenderID] = sender
		}
		views = append(views, View{
			ID:          m.ID,
			Sender:      sender,
			RecipientID: m.RecipientID,
			Text:        m.Text,
			IsRead:      m.IsRead,
			CreatedAt:   m.CreatedAt,
			UpdatedAt:   m.UpdatedAt,
		})
	}
	Sort(views)
	return views, nil
}

// MarkRead marks the message as read on behalf of its recipient. Marking twice is a no-op.
func (svc *Service) MarkRead(ctx context.Context, id, recipientID string) (Message, error) {
	msg, err := svc.repo.MarkMessageRead(ctx, id, recipientID, time.Now().UTC())
	if err != ErrNotFound {
		return msg, err
	}
	// tell apart a missing message from somebody else's
	if _, err := svc.repo.GetMessageByID(ctx, id); err != nil {
		return Message{}, err
	}
	return Message{}, ErrNotRecipient
}
