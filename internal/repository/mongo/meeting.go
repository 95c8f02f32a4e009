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

var nonBlocking = bson.A{model.MeetingRejected, model.MeetingCancelled}

func (s *Store) getMeeting(ctx context.Context, id string) (*meetingDoc, error) {
	oid, err := objectID("meeting", id)
	if err != nil {
		return nil, err
	}
	var d meetingDoc
	if err := s.col(colMeetings).FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("meeting", id)
		}
		return nil, fmt.Errorf("mongo: getting meeting %s: %w", id, err)
	}
	return &d, nil
}

func (s *Store) GetMeetingByID(ctx context.Context, id string) (*model.Meeting, error) {
	d, err := s.getMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.meeting(), nil
}

func (s *Store) ListMeetings(ctx context.Context, f repository.MeetingFilter) ([]model.Meeting, error) {
	filter := bson.M{}
	for key, id := range map[string]string{"user_id": f.UserID, "creator_id": f.CreatorID} {
		if id == "" {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return []model.Meeting{}, nil
		}
		filter[key] = oid
	}
	when := bson.M{}
	if !f.From.IsZero() {
		when["$gte"] = f.From
	}
	if !f.To.IsZero() {
		when["$lte"] = f.To
	}
	if len(when) > 0 {
		filter["scheduled_at"] = when
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col(colMeetings).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing meetings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []meetingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding meetings: %w", err)
	}
	meetings := make([]model.Meeting, 0, len(docs))
	for _, d := range docs {
		meetings = append(meetings, *d.meeting())
	}
	return meetings, nil
}

// Book reserves the creator with a status-guarded update, checks the overlap
// window and inserts the meeting in one session transaction.
func (s *Store) Book(ctx context.Context, b repository.Booking) error {
	m := b.Meeting
	userID, err := objectID("user", m.UserID)
	if err != nil {
		return err
	}
	creatorID, err := objectID("creator", m.CreatorID)
	if err != nil {
		return err
	}

	t := now()
	d := meetingDoc{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		CreatorID:   creatorID,
		Emotion:     m.Emotion,
		ScheduledAt: m.ScheduledAt.UTC().Truncate(time.Second),
		Status:      m.Status,
		MeetLink:    m.MeetLink,
		Kind:        m.Kind,
		CreatedAt:   t,
		UpdatedAt:   t,
	}

	err = s.withTx(ctx, func(sc mongo.SessionContext) error {
		if b.ReserveCreator {
			res, err := s.col(colCreators).UpdateOne(sc,
				bson.M{"_id": creatorID, "current_status": model.StatusOnline, "available_for_support": true},
				bson.M{
					"$set": bson.M{"current_status": model.StatusInMeeting, "updated_at": t},
					"$inc": bson.M{"support_count": 1},
				},
			)
			if err != nil {
				return fmt.Errorf("mongo: reserving creator %s: %w", m.CreatorID, err)
			}
			if res.MatchedCount == 0 {
				return repository.SlotTaken()
			}
		}

		if b.OverlapWindow > 0 {
			clashes, err := s.col(colMeetings).CountDocuments(sc, bson.M{
				"creator_id": creatorID,
				"scheduled_at": bson.M{
					"$gte": d.ScheduledAt.Add(-b.OverlapWindow),
					"$lte": d.ScheduledAt.Add(b.OverlapWindow),
				},
				"status": bson.M{"$nin": nonBlocking},
			})
			if err != nil {
				return fmt.Errorf("mongo: checking overlapping meetings: %w", err)
			}
			if clashes > 0 {
				return repository.SlotTaken()
			}
		}

		if _, err := s.col(colMeetings).InsertOne(sc, d); err != nil {
			return fmt.Errorf("mongo: inserting meeting: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	*m = *d.meeting()
	return nil
}

func (s *Store) Transition(ctx context.Context, c repository.StatusChange) (*model.Meeting, error) {
	var updated *model.Meeting

	err := s.withTx(ctx, func(sc mongo.SessionContext) error {
		current, err := s.getMeeting(sc, c.MeetingID)
		if err != nil {
			return err
		}
		if current.Status != c.From {
			return repository.StatusChanged(c.MeetingID)
		}

		t := now()
		set := bson.M{"status": c.To, "updated_at": t}
		if c.MeetLink != "" {
			set["meet_link"] = c.MeetLink
		}
		res, err := s.col(colMeetings).UpdateOne(sc, bson.M{"_id": current.ID, "status": c.From}, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("mongo: updating meeting %s: %w", c.MeetingID, err)
		}
		if res.MatchedCount == 0 {
			return repository.StatusChanged(c.MeetingID)
		}

		if c.CreatorStatus != "" {
			filter := bson.M{"_id": current.CreatorID}
			if c.CreatorStatusFrom != "" {
				filter["current_status"] = c.CreatorStatusFrom
			}
			_, err := s.col(colCreators).UpdateOne(sc, filter, bson.M{"$set": bson.M{"current_status": c.CreatorStatus, "updated_at": t}})
			if err != nil {
				return fmt.Errorf("mongo: updating creator %s status: %w", current.CreatorID.Hex(), err)
			}
		}

		after, err := s.getMeeting(sc, c.MeetingID)
		if err != nil {
			return err
		}
		updated = after.meeting()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
