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
)

func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	uploader, err := objectID("creator", v.UploaderID)
	if err != nil {
		return err
	}
	d := videoDoc{
		ID:         primitive.NewObjectID(),
		Title:      v.Title,
		Filename:   v.Filename,
		FilePath:   v.FilePath,
		UploaderID: uploader,
		Views:      v.Views,
		CreatedAt:  now(),
	}
	if _, err := s.col(colVideos).InsertOne(ctx, d); err != nil {
		return fmt.Errorf("mongo: inserting video: %w", err)
	}
	v.ID = d.ID.Hex()
	v.CreatedAt = d.CreatedAt
	return nil
}

func (s *Store) ListVideos(ctx context.Context) ([]model.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.col(colVideos).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing videos: %w", err)
	}
	defer cur.Close(ctx)

	var docs []videoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding videos: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.UploaderID)
	}
	names, err := s.creatorNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	videos := make([]model.Video, 0, len(docs))
	for _, d := range docs {
		v := d.video()
		v.UploaderName = names[d.UploaderID]
		videos = append(videos, *v)
	}
	return videos, nil
}

func (s *Store) ViewVideo(ctx context.Context, id string) (*model.Video, error) {
	oid, err := objectID("video", id)
	if err != nil {
		return nil, err
	}

	var d videoDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.col(colVideos).FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("video", id)
		}
		return nil, fmt.Errorf("mongo: counting view of video %s: %w", id, err)
	}

	names, err := s.creatorNames(ctx, []primitive.ObjectID{d.UploaderID})
	if err != nil {
		return nil, err
	}
	v := d.video()
	v.UploaderName = names[d.UploaderID]
	return v, nil
}

// creatorNames resolves creator ids to names; unknown ids are absent from the map.
func (s *Store) creatorNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cur, err := s.col(colCreators).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: resolving uploader names: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding uploader names: %w", err)
	}
	for _, d := range docs {
		names[d.ID] = d.Name
	}
	return names, nil
}
