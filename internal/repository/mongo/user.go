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

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// now is truncated to BSON date precision so stored and returned values agree.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) insertAccount(ctx context.Context, col string, d *accountDoc) error {
	if _, err := s.col(col).InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.EmailTaken()
		}
		return fmt.Errorf("mongo: inserting into %s: %w", col, err)
	}
	return nil
}

func (s *Store) findAccount(ctx context.Context, col string, filter bson.M) (*accountDoc, error) {
	var d accountDoc
	if err := s.col(col).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	t := now()
	d := &accountDoc{
		ID: primitive.NewObjectID(), Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		Role: model.RoleUser, CreatedAt: t, UpdatedAt: t,
	}
	if err := s.insertAccount(ctx, colUsers, d); err != nil {
		return err
	}
	*u = *d.user()
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID("user", id)
	if err != nil {
		return nil, err
	}
	d, err := s.findAccount(ctx, colUsers, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", id, err)
	}
	return d.user(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	d, err := s.findAccount(ctx, colUsers, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.New(apperror.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("mongo: getting user by email: %w", err)
	}
	return d.user(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col(colUsers).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding users: %w", err)
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, *d.user())
	}
	return users, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	t := now()
	d := &accountDoc{
		ID: primitive.NewObjectID(), Name: a.Name, Email: a.Email, PasswordHash: a.PasswordHash,
		Role: model.RoleAdmin, CreatedAt: t, UpdatedAt: t,
	}
	if err := s.insertAccount(ctx, colAdmins, d); err != nil {
		return err
	}
	*a = *d.admin()
	return nil
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	oid, err := objectID("admin", id)
	if err != nil {
		return nil, err
	}
	d, err := s.findAccount(ctx, colAdmins, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("mongo: getting admin %s: %w", id, err)
	}
	return d.admin(), nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	d, err := s.findAccount(ctx, colAdmins, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.New(apperror.ErrNotFound, "admin not found")
		}
		return nil, fmt.Errorf("mongo: getting admin by email: %w", err)
	}
	return d.admin(), nil
}
