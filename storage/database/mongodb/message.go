package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ratiba/core/message"
)

type messageDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	SenderID    primitive.ObjectID `bson:"senderId"`
	RecipientID primitive.ObjectID `bson:"recipientId"`
	Message     string             `bson:"message"`
	IsRead      bool               `bson:"isRead"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type messageRepository struct {
	coll *mongo.Collection
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) message.Repository {
	return &messageRepository{coll: db.db.Collection(messagesCollection)}
}

func (repo *messageRepository) fromDoc(doc messageDoc) message.Message {
	return message.Message{
		ID:          hexID(doc.ID),
		SenderID:    hexID(doc.SenderID),
		RecipientID: hexID(doc.RecipientID),
		Text:        doc.Message,
		IsRead:      doc.IsRead,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	senderID, err := foreignID("senderId", msg.SenderID)
	if err != nil {
		return message.Message{}, err
	}
	recipientID, err := foreignID("recipientId", msg.RecipientID)
	if err != nil {
		return message.Message{}, err
	}

	doc := messageDoc{
		ID:          primitive.NewObjectID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Message:     msg.Text,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt.UTC(),
		UpdatedAt:   msg.UpdatedAt.UTC(),
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return repo.fromDoc(doc), nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (message.Message, error) {
	oid, ok := objectID(id)
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	var doc messageDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, errors.Wrap(err, "finding message")
	}
	return repo.fromDoc(doc), nil
}

func (repo *messageRepository) FilterMessagesByRecipient(ctx context.Context, recipientID string) ([]message.Message, error) {
	cur, err := repo.coll.Find(
		ctx,
		bson.M{"recipientId": refID(recipientID)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "filtering messages")
	}
	var docs []messageDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding messages")
	}

	msgs := make([]message.Message, 0, len(docs))
	for _, doc := range docs {
		msgs = append(msgs, repo.fromDoc(doc))
	}
	return msgs, nil
}

func (repo *messageRepository) MarkMessageRead(ctx context.Context, id, recipientID string, at time.Time) (message.Message, error) {
	oid, ok := objectID(id)
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	rid := refID(recipientID)

	// only unread messages get a new updatedAt
	_, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": oid, "recipientId": rid, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "updatedAt": at.UTC()}},
	)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "marking message read")
	}

	var doc messageDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid, "recipientId": rid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return message.Message{}, message.ErrNotFound
		}
		return message.Message{}, errors.Wrap(err, "finding message")
	}
	return repo.fromDoc(doc), nil
}
