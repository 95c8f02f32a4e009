package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

func (s *Store) CreateCreator(ctx context.Context, c *model.Creator) error {
	t := now()
	if c.Category == "" {
		c.Category = model.CategoryVisuals
	}
	if c.CurrentStatus == "" {
		c.CurrentStatus = model.StatusOffline
	}

	d := creatorDoc{
		ID:                  primitive.NewObjectID(),
		Name:                c.Name,
		Email:               c.Email,
		PasswordHash:        c.PasswordHash,
		Age:                 c.Age,
		Category:            c.Category,
		AvailableForSupport: c.AvailableForSupport,
		SupportEmotions:     dedupeEmotions(c.SupportEmotions),
		Availability:        toWindowDocs(c.Availability),
		CurrentStatus:       c.CurrentStatus,
		Rating:              c.Rating,
		SupportCount:        c.SupportCount,
		VisualPosts:         []postDoc{},
		CreatedAt:           t,
		UpdatedAt:           t,
	}
	if _, err := s.col(colCreators).InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.EmailTaken()
		}
		return fmt.Errorf("mongo: inserting creator: %w", err)
	}

	c.ID = d.ID.Hex()
	c.SupportEmotions = d.SupportEmotions
	c.CreatedAt = t
	c.UpdatedAt = t
	return nil
}

func (s *Store) findCreator(ctx context.Context, filter bson.M) (*creatorDoc, error) {
	var d creatorDoc
	if err := s.col(colCreators).FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetCreatorByID(ctx context.Context, id string) (*model.Creator, error) {
	oid, err := objectID("creator", id)
	if err != nil {
		return nil, err
	}
	d, err := s.findCreator(ctx, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("creator", id)
		}
		return nil, fmt.Errorf("mongo: getting creator %s: %w", id, err)
	}
	return d.creator(), nil
}

func (s *Store) GetCreatorByEmail(ctx context.Context, email string) (*model.Creator, error) {
	d, err := s.findCreator(ctx, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.New(apperror.ErrNotFound, "creator not found")
		}
		return nil, fmt.Errorf("mongo: getting creator by email: %w", err)
	}
	return d.creator(), nil
}

func (s *Store) ListCreators(ctx context.Context, f repository.CreatorFilter) ([]model.Creator, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.SupportOnly {
		filter["available_for_support"] = true
	}
	if f.Emotion != "" {
		filter["support_emotions"] = f.Emotion
	}
	if f.Status != "" {
		filter["current_status"] = f.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"visual_posts": 0})
	cur, err := s.col(colCreators).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing creators: %w", err)
	}
	defer cur.Close(ctx)

	var docs []creatorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding creators: %w", err)
	}
	creators := make([]model.Creator, 0, len(docs))
	for _, d := range docs {
		c := d.creator()
		c.VisualPosts = nil
		creators = append(creators, *c)
	}
	return creators, nil
}

// UpdateSupportSettings is a single-document update, atomic without a transaction.
func (s *Store) UpdateSupportSettings(ctx context.Context, id string, settings model.SupportSettings, from, to model.CreatorStatus) (*model.Creator, error) {
	oid, err := objectID("creator", id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"available_for_support": settings.AvailableForSupport,
		"current_status":        to,
		"updated_at":            now(),
	}
	if settings.SupportEmotions != nil {
		set["support_emotions"] = dedupeEmotions(settings.SupportEmotions)
	}
	if settings.Availability != nil {
		set["availability"] = toWindowDocs(settings.Availability)
	}

	res, err := s.col(colCreators).UpdateOne(ctx, statusGuard(oid, from), bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("mongo: updating creator %s settings: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, s.missingOrChanged(ctx, oid, id)
	}
	return s.GetCreatorByID(ctx, id)
}

func (s *Store) SetCreatorStatus(ctx context.Context, id string, from, to model.CreatorStatus) error {
	oid, err := objectID("creator", id)
	if err != nil {
		return err
	}
	res, err := s.col(colCreators).UpdateOne(ctx, statusGuard(oid, from), bson.M{"$set": bson.M{"current_status": to, "updated_at": now()}})
	if err != nil {
		return fmt.Errorf("mongo: setting creator %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return s.missingOrChanged(ctx, oid, id)
	}
	return nil
}

func statusGuard(oid primitive.ObjectID, from model.CreatorStatus) bson.M {
	filter := bson.M{"_id": oid}
	if from != repository.AnyStatus {
		filter["current_status"] = from
	}
	return filter
}

func (s *Store) missingOrChanged(ctx context.Context, oid primitive.ObjectID, id string) error {
	n, err := s.col(colCreators).CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: checking creator %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("creator", id)
	}
	return repository.CreatorStatusChanged(id)
}

func (s *Store) AddVisualPost(ctx context.Context, creatorID string, p *model.VisualPost) error {
	oid, err := objectID("creator", creatorID)
	if err != nil {
		return err
	}

	d := postDoc{ID: primitive.NewObjectID(), Type: p.Type, Content: p.Content, MediaURL: p.MediaURL, CreatedAt: now()}
	res, err := s.col(colCreators).UpdateByID(ctx, oid, bson.M{
		"$push": bson.M{"visual_posts": d},
		"$set":  bson.M{"updated_at": d.CreatedAt},
	})
	if err != nil {
		return fmt.Errorf("mongo: adding visual post to creator %s: %w", creatorID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("creator", creatorID)
	}

	p.ID = d.ID.Hex()
	p.CreatedAt = d.CreatedAt
	return nil
}

func (s *Store) ListVisualPosts(ctx context.Context, creatorID string) ([]model.VisualPost, error) {
	oid, err := objectID("creator", creatorID)
	if err != nil {
		return nil, err
	}

	var d struct {
		VisualPosts []postDoc `bson:"visual_posts"`
	}
	opts := options.FindOne().SetProjection(bson.M{"visual_posts": 1})
	if err := s.col(colCreators).FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("creator", creatorID)
		}
		return nil, fmt.Errorf("mongo: listing visual posts of creator %s: %w", creatorID, err)
	}
	return posts(d.VisualPosts), nil
}
