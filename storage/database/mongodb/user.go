package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ratiba/core/user"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       []byte             `bson:"password"`
	Role           string             `bson:"role"`
	Department     string             `bson:"department,omitempty"`
	Subject        string             `bson:"subject,omitempty"`
	Age            int                `bson:"age,omitempty"`
	IsApproved     bool               `bson:"isApproved"`
	RegisteredDate time.Time          `bson:"registeredDate"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.db.Collection(usersCollection)}
}

func (repo *userRepository) toDoc(usr user.Identity) userDoc {
	oid, _ := objectID(usr.ID)
	return userDoc{
		ID:             oid,
		Name:           usr.Name,
		Email:          usr.Email,
		Password:       usr.PasswordHash,
		Role:           usr.Role,
		Department:     usr.Department,
		Subject:        usr.Subject,
		Age:            usr.Age,
		IsApproved:     usr.IsApproved,
		RegisteredDate: usr.RegisteredDate.UTC(),
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
	}
}

func (repo *userRepository) fromDoc(doc userDoc) user.Identity {
	return user.Identity{
		ID:             hexID(doc.ID),
		Name:           doc.Name,
		Email:          doc.Email,
		PasswordHash:   doc.Password,
		Role:           doc.Role,
		Department:     doc.Department,
		Subject:        doc.Subject,
		Age:            doc.Age,
		IsApproved:     doc.IsApproved,
		RegisteredDate: doc.RegisteredDate.UTC(),
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
}

func (repo *userRepository) findOne(ctx context.Context, filter bson.M) (user.Identity, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.Identity{}, user.ErrNotFound
		}
		return user.Identity{}, errors.Wrap(err, "finding user")
	}
	return repo.fromDoc(doc), nil
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	filter := bson.M{"email": email}
	if len(excludedIDs) > 0 {
		oids := make([]primitive.ObjectID, 0, len(excludedIDs))
		for _, id := range excludedIDs {
			if oid, ok := objectID(id); ok {
				oids = append(oids, oid)
			}
		}
		filter["_id"] = bson.M{"$nin": oids}
	}
	n, err := repo.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.Identity) (user.Identity, error) {
	doc := repo.toDoc(usr)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.Identity{}, user.ErrEmailExists
		}
		return user.Identity{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromDoc(doc), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.Identity, error) {
	oid, ok := objectID(id)
	if !ok {
		return user.Identity{}, user.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.Identity, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.Identity, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if filter.Department != "" {
		q["department"] = filter.Department
	}
	if filter.Subject != "" {
		q["subject"] = filter.Subject
	}
	if filter.IsApproved != nil {
		q["isApproved"] = *filter.IsApproved
	}

	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}

	users := make([]user.Identity, 0, len(docs))
	for _, doc := range docs {
		users = append(users, repo.fromDoc(doc))
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.Identity) (user.Identity, error) {
	oid, ok := objectID(usr.ID)
	if !ok {
		return user.Identity{}, user.ErrNotFound
	}
	doc := repo.toDoc(usr)
	update := bson.M{"$set": bson.M{
		"name":       doc.Name,
		"email":      doc.Email,
		"password":   doc.Password,
		"role":       doc.Role,
		"department": doc.Department,
		"subject":    doc.Subject,
		"age":        doc.Age,
		"isApproved": doc.IsApproved,
		"updatedAt":  doc.UpdatedAt,
	}}

	var updated userDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated); err != nil {
		switch {
		case err == mongo.ErrNoDocuments:
			return user.Identity{}, user.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return user.Identity{}, user.ErrEmailExists
		}
		return user.Identity{}, errors.Wrap(err, "updating user")
	}
	return repo.fromDoc(updated), nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return user.ErrNotFound
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}
