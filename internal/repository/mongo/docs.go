package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/heartline/internal/model"
)

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         model.Role         `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d accountDoc) user() *model.User {
	return &model.User{
		ID: d.ID.Hex(), Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: d.Role, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (d accountDoc) admin() *model.Admin {
	return &model.Admin{
		ID: d.ID.Hex(), Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: d.Role, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type windowDoc struct {
	Day       model.Weekday `bson:"day"`
	StartTime string        `bson:"start_time"`
	EndTime   string        `bson:"end_time"`
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Type      string             `bson:"type"`
	Content   string             `bson:"content"`
	MediaURL  string             `bson:"media_url"`
	CreatedAt time.Time          `bson:"created_at"`
}

type creatorDoc struct {
	ID                  primitive.ObjectID  `bson:"_id"`
	Name                string              `bson:"name"`
	Email               string              `bson:"email"`
	PasswordHash        string              `bson:"password_hash"`
	Age                 int                 `bson:"age"`
	Category            model.Category      `bson:"category"`
	AvailableForSupport bool                `bson:"available_for_support"`
	SupportEmotions     []model.Emotion     `bson:"support_emotions"`
	Availability        []windowDoc         `bson:"availability"`
	CurrentStatus       model.CreatorStatus `bson:"current_status"`
	Rating              float64             `bson:"rating"`
	SupportCount        int                 `bson:"support_count"`
	VisualPosts         []postDoc           `bson:"visual_posts"`
	CreatedAt           time.Time           `bson:"created_at"`
	UpdatedAt           time.Time           `bson:"updated_at"`
}

func toWindowDocs(ws []model.AvailabilityWindow) []windowDoc {
	out := make([]windowDoc, 0, len(ws))
	for _, w := range ws {
		out = append(out, windowDoc{Day: w.Day, StartTime: w.StartTime, EndTime: w.EndTime})
	}
	return out
}

// dedupeEmotions keeps the first occurrence of each emotion.
func dedupeEmotions(es []model.Emotion) []model.Emotion {
	out := make([]model.Emotion, 0, len(es))
	seen := make(map[model.Emotion]bool, len(es))
	for _, e := range es {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func (d creatorDoc) creator() *model.Creator {
	c := &model.Creator{
		ID:                  d.ID.Hex(),
		Name:                d.Name,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		Age:                 d.Age,
		Category:            d.Category,
		AvailableForSupport: d.AvailableForSupport,
		SupportEmotions:     append([]model.Emotion{}, d.SupportEmotions...),
		Availability:        make([]model.AvailabilityWindow, 0, len(d.Availability)),
		CurrentStatus:       d.CurrentStatus,
		Rating:              d.Rating,
		SupportCount:        d.SupportCount,
		CreatedAt:           d.CreatedAt.UTC(),
		UpdatedAt:           d.UpdatedAt.UTC(),
	}
	for _, w := range d.Availability {
		c.Availability = append(c.Availability, model.AvailabilityWindow{Day: w.Day, StartTime: w.StartTime, EndTime: w.EndTime})
	}
	c.VisualPosts = posts(d.VisualPosts)
	return c
}

func posts(ds []postDoc) []model.VisualPost {
	out := make([]model.VisualPost, 0, len(ds))
	for _, p := range ds {
		out = append(out, model.VisualPost{
			ID: p.ID.Hex(), Type: p.Type, Content: p.Content, MediaURL: p.MediaURL, CreatedAt: p.CreatedAt.UTC(),
		})
	}
	return out
}

type meetingDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	UserID      primitive.ObjectID  `bson:"user_id"`
	CreatorID   primitive.ObjectID  `bson:"creator_id"`
	Emotion     model.Emotion       `bson:"emotion"`
	ScheduledAt time.Time           `bson:"scheduled_at"`
	Status      model.MeetingStatus `bson:"status"`
	MeetLink    string              `bson:"meet_link"`
	Kind        model.MeetingKind   `bson:"kind"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (d meetingDoc) meeting() *model.Meeting {
	return &model.Meeting{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		CreatorID:   d.CreatorID.Hex(),
		Emotion:     d.Emotion,
		ScheduledAt: d.ScheduledAt.UTC(),
		Status:      d.Status,
		MeetLink:    d.MeetLink,
		Kind:        d.Kind,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type videoDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Title      string             `bson:"title"`
	Filename   string             `bson:"filename"`
	FilePath   string             `bson:"file_path"`
	UploaderID primitive.ObjectID `bson:"uploader_id"`
	Views      int                `bson:"views"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d videoDoc) video() *model.Video {
	return &model.Video{
		ID:         d.ID.Hex(),
		Title:      d.Title,
		Filename:   d.Filename,
		FilePath:   d.FilePath,
		UploaderID: d.UploaderID.Hex(),
		Views:      d.Views,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}
