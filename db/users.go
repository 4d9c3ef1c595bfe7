package db

import (
	"context"
	"errors"

	"tastebase/auth"
	"tastebase/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FindUserByEmail looks up the unique user for an email. Emails are
// matched exactly as stored.
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := db.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) InsertUser(ctx context.Context, user *models.User) error {
	_, err := db.Users.InsertOne(ctx, user)
	return err
}
