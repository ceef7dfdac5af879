package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arshmeetsingh/lego-collection/internal/models"
)

// UsersCollection holds one document per account.
const UsersCollection = "users"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRepository persists accounts in MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(coll *mongo.Collection) *UserRepository {
	return &UserRepository{coll: coll}
}

// EnsureIndexes creates the unique userName index. Registration relies on it
// to reject duplicate names.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetName("idx_userName_unique").SetUnique(true),
	})
	return err
}

// FindByUsername returns ErrUserNotFound when no account has the name.
func (r *UserRepository) FindByUsername(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"userName": userName}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new account and sets its ID. A duplicate userName yields
// ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.LoginHistory == nil {
		user.LoginHistory = []models.LoginEvent{}
	}

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// Save replaces the stored account with user, matched by ID.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		return fmt.Errorf("save user %q: missing id", user.UserName)
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
