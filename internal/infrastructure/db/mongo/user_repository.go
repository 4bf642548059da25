package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabify/order-sync/internal/core/domain"
)

const usersCollection = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Phone      string             `bson:"phone"`
	Role       string             `bson:"role"`
	SessionKey string             `bson:"session_key"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:         mu.ID.Hex(),
		Name:       mu.Name,
		Phone:      mu.Phone,
		Role:       domain.Role(mu.Role),
		SessionKey: mu.SessionKey,
		CreatedAt:  mu.CreatedAt.UTC(),
	}
}

// Create inserts a new user. A duplicate phone from a concurrent
// registration resolves to the already-stored user, keeping registration
// idempotent by phone number.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Name:       user.Name,
		Phone:      user.Phone,
		Role:       string(user.Role),
		SessionKey: user.SessionKey,
		CreatedAt:  user.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Same phone racing in: resolve to the stored user. If no user
			// holds this phone, the partial owner index fired instead, which
			// means a second owner lost the race.
			existing, findErr := r.FindByPhone(ctx, user.Phone)
			if findErr == nil {
				return existing, nil
			}
			if errors.Is(findErr, domain.ErrUserNotFound) && user.Role == domain.RoleOwner {
				return nil, domain.ErrRoleConflict
			}
			return nil, findErr
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := doc
	created.ID = res.InsertedID.(primitive.ObjectID)
	return created.toDomain(), nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *UserRepository) FindBySessionKey(ctx context.Context, sessionKey string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"session_key": sessionKey})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// OwnerExists reports whether any user holds the owner role.
func (r *UserRepository) OwnerExists(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"role": string(domain.RoleOwner)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count owners: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates the unique indexes on phone and session_key, plus a
// partial unique index that admits at most one owner document. The service
// pre-checks with OwnerExists; the index closes the window between two
// concurrent owner registrations.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "session_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"role": string(domain.RoleOwner)}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
