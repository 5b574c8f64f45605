package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core/message"
)

type messageRepository struct {
	db *messageTable
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) message.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.NewString()
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) GetMessageByID(_ context.Context, id string) (message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if msg, ok := repo.db.table[id]; ok {
		return *msg, nil
	}
	return message.Message{}, message.ErrNotFound
}

func (repo *messageRepository) FilterMessagesByRecipient(_ context.Context, recipientID string) ([]message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]message.Message, 0)
	for _, msg := range repo.db.table {
		if msg.RecipientID == recipientID {
			msgs = append(msgs, *msg)
		}
	}
	return msgs, nil
}

func (repo *messageRepository) MarkMessageRead(_ context.Context, id, recipientID string, at time.Time) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg, ok := repo.db.table[id]
	if !ok || msg.RecipientID != recipientID {
		return message.Message{}, message.ErrNotFound
	}
	if !msg.IsRead {
		msg.IsRead = true
		msg.UpdatedAt = at
	}
	return *msg, nil
}
