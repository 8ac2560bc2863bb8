package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	domuser "github.com/kailas-cloud/cinesearch/internal/domain/user"
)

// userDoc is the MongoDB document for a user.
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func toDoc(id primitive.ObjectID, u domuser.User) userDoc {
	return userDoc{
		ID:           id,
		Username:     u.Username(),
		Email:        u.Email(),
		PasswordHash: u.PasswordHash(),
		CreatedAt:    u.CreatedAt(),
	}
}

func (d userDoc) toDomain() domuser.User {
	return domuser.Reconstruct(d.ID.Hex(), d.Username, d.Email, d.PasswordHash, d.CreatedAt.UTC())
}
