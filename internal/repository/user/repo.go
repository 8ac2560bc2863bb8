package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
	domuser "github.com/kailas-cloud/cinesearch/internal/domain/user"
)

const usernameIndex = "username_unique"

// Repo implements usecase/auth.UserRepository on a MongoDB collection.
type Repo struct {
	col *mongo.Collection
}

// New creates a user repository.
func New(col *mongo.Collection) *Repo {
	return &Repo{col: col}
}

// EnsureIndexes creates the unique username index. Safe to call on every start.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(usernameIndex),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", &db.Error{Op: db.OpCreateIndex, Err: err})
	}
	return nil
}

// Insert stores a new user and returns it with its assigned ID.
// A username collision maps to domain.ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, u domuser.User) (domuser.User, error) {
	id := primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, toDoc(id, u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domuser.User{}, domain.ErrAlreadyExists
		}
		return domuser.User{}, fmt.Errorf("insert user %s: %w", u.Username(), &db.Error{Op: db.OpInsert, Err: err})
	}
	return u.WithID(id.Hex()), nil
}

// FindByUsername returns the user with the exact username or domain.ErrNotFound.
func (r *Repo) FindByUsername(ctx context.Context, username string) (domuser.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (domuser.User, error) {
	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domuser.User{}, domain.ErrNotFound
		}
		return domuser.User{}, fmt.Errorf("find user: %w", &db.Error{Op: db.OpFind, Err: err})
	}
	return doc.toDomain(), nil
}
