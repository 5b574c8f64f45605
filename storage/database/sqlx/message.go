package sqlxdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/message"
)

const messageColumns = `id, sender_id, recipient_id, message, is_read, created_at, updated_at`

type messageRow struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	RecipientID string    `db:"recipient_id"`
	Message     string    `db:"message"`
	IsRead      bool      `db:"is_read"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row messageRow) message() message.Message {
	return message.Message{
		ID:          row.ID,
		SenderID:    row.SenderID,
		RecipientID: row.RecipientID,
		Text:        row.Message,
		IsRead:      row.IsRead,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) message.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	row := messageRow{
		ID:          uuid.NewString(),
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Message:     msg.Text,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt.UTC(),
		UpdatedAt:   msg.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO messages (`+messageColumns+`)
		VALUES (:id, :sender_id, :recipient_id, :message, :is_read, :created_at, :updated_at)`, row)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return row.message(), nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (message.Message, error) {
	var row messageRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, errors.Wrap(err, "selecting message")
	}
	return row.message(), nil
}

func (repo *messageRepository) FilterMessagesByRecipient(ctx context.Context, recipientID string) ([]message.Message, error) {
	var rows []messageRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages
		WHERE recipient_id = $1 ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering messages")
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.message())
	}
	return msgs, nil
}

func (repo *messageRepository) MarkMessageRead(ctx context.Context, id, recipientID string, at time.Time) (message.Message, error) {
	// updated_at only moves on the first read
	var row messageRow
	err := repo.db.GetContext(ctx, &row, `UPDATE messages SET
			is_read = TRUE,
			updated_at = CASE WHEN is_read THEN updated_at ELSE $3 END
		WHERE id = $1 AND recipient_id = $2
		RETURNING `+messageColumns, id, recipientID, at.UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, errors.Wrap(err, "marking message read")
	}
	return row.message(), nil
}
