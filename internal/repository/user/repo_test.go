package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kailas-cloud/cinesearch/internal/db"
	"github.com/kailas-cloud/cinesearch/internal/domain"
	domuser "github.com/kailas-cloud/cinesearch/internal/domain/user"
)

func newUser(t *testing.T) domuser.User {
	t.Helper()
	u, err := domuser.New("alice", "alice@example.com", "$2a$10$hash", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("user.New: %v", err)
	}
	return u
}

func TestDocMapping(t *testing.T) {
	u := newUser(t)
	id := primitive.NewObjectID()

	got := toDoc(id, u).toDomain()
	if got.ID() != id.Hex() {
		t.Errorf("ID = %q, want %q", got.ID(), id.Hex())
	}
	if got.Username() != "alice" || got.Email() != "alice@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.PasswordHash() != "$2a$10$hash" {
		t.Errorf("PasswordHash = %q", got.PasswordHash())
	}
	if !got.CreatedAt().Equal(u.CreatedAt()) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt(), u.CreatedAt())
	}
}

func TestRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := New(mt.Coll).Insert(context.Background(), newUser(t))
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(got.ID()); err != nil {
			mt.Errorf("expected hex object id, got %q", got.ID())
		}
	})

	mt.Run("insert duplicate username", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: username_unique",
		}))

		_, err := New(mt.Coll).Insert(context.Background(), newUser(t))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			mt.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	mt.Run("find by username", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "passwordHash", Value: "$2a$10$hash"},
			{Key: "createdAt", Value: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		}))

		got, err := New(mt.Coll).FindByUsername(context.Background(), "alice")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if got.ID() != id.Hex() || got.Username() != "alice" {
			mt.Errorf("unexpected user: id=%q username=%q", got.ID(), got.Username())
		}
	})

	mt.Run("find missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := New(mt.Coll).FindByUsername(context.Background(), "ghost")
		if !errors.Is(err, domain.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := New(mt.Coll).EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("store failures carry the operation", func(mt *mtest.T) {
		cmdErr := mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad value"}
		repo := New(mt.Coll)
		ctx := context.Background()

		calls := []struct {
			op  string
			run func() error
		}{
			{db.OpInsert, func() error {
				_, err := repo.Insert(ctx, newUser(t))
				return err
			}},
			{db.OpFind, func() error {
				_, err := repo.FindByUsername(ctx, "alice")
				return err
			}},
			{db.OpCreateIndex, func() error { return repo.EnsureIndexes(ctx) }},
		}
		for _, c := range calls {
			mt.AddMockResponses(mtest.CreateCommandErrorResponse(cmdErr))

			err := c.run()
			var dbErr *db.Error
			if !errors.As(err, &dbErr) {
				mt.Fatalf("%s: expected *db.Error, got %v", c.op, err)
			}
			if dbErr.Op != c.op {
				mt.Errorf("Op = %q, want %q", dbErr.Op, c.op)
			}
			if errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrNotFound) {
				mt.Errorf("%s: store failure mapped to a domain error: %v", c.op, err)
			}
		}
	})
}
