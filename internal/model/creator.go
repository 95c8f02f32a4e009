package model

import (
	"fmt"
	"strings"
	"time"
)

// Emotion is one of the fixed support tags a creator can declare.
type Emotion string

const (
	EmotionSad      Emotion = "sad"
	EmotionAnxious  Emotion = "anxious"
	EmotionAngry    Emotion = "angry"
	EmotionLonely   Emotion = "lonely"
	EmotionStressed Emotion = "stressed"
)

// Emotions lists every supported tag in a stable order.
var Emotions = []Emotion{EmotionSad, EmotionAnxious, EmotionAngry, EmotionLonely, EmotionStressed}

// ParseEmotion accepts a tag in any case.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Emotions {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// Category is the kind of content a creator publishes.
type Category string

const (
	CategoryVisuals Category = "Visuals"
	CategoryCulture Category = "Culture"
	CategoryMeeting Category = "Meeting"
)

// ParseCategory returns CategoryVisuals for an empty string.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.TrimSpace(s)); c {
	case "":
		return CategoryVisuals, nil
	case CategoryVisuals, CategoryCulture, CategoryMeeting:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// CreatorStatus is the creator's presence.
type CreatorStatus string

const (
	StatusOnline    CreatorStatus = "online"
	StatusOffline   CreatorStatus = "offline"
	StatusInMeeting CreatorStatus = "in-meeting"
)

// ParseCreatorStatus validates a presence value.
func ParseCreatorStatus(s string) (CreatorStatus, error) {
	switch st := CreatorStatus(s); st {
	case StatusOnline, StatusOffline, StatusInMeeting:
		return st, nil
	}
	return "", fmt.Errorf("unknown creator status %q", s)
}

// VisualPost is a piece of content embedded in a creator's profile.
type VisualPost struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Creator publishes content and optionally offers support sessions.
type Creator struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	PasswordHash        string               `json:"-"`
	Age                 int                  `json:"age"`
	Category            Category             `json:"category"`
	AvailableForSupport bool                 `json:"availableForSupport"`
	SupportEmotions     []Emotion            `json:"supportEmotions"`
	Availability        []AvailabilityWindow `json:"availability"`
	CurrentStatus       CreatorStatus        `json:"currentStatus"`
	Rating              float64              `json:"rating"`
	SupportCount        int                  `json:"supportCount"`
	VisualPosts         []VisualPost         `json:"visualPosts,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// Supports reports whether the creator declared the emotion.
func (c *Creator) Supports(e Emotion) bool {
	for _, s := range c.SupportEmotions {
		if s == e {
			return true
		}
	}
	return false
}

// Profile returns the public view of the creator.
func (c *Creator) Profile() CreatorProfile {
	return CreatorProfile{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Age:                 c.Age,
		Category:            c.Category,
		AvailableForSupport: c.AvailableForSupport,
		SupportEmotions:     c.SupportEmotions,
		Availability:        c.Availability,
		CurrentStatus:       c.CurrentStatus,
		Rating:              c.Rating,
		SupportCount:        c.SupportCount,
	}
}

// CreatorProfile is what GET /api/creators/{id} returns.
type CreatorProfile struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	Age                 int                  `json:"age"`
	Category            Category             `json:"category"`
	AvailableForSupport bool                 `json:"availableForSupport"`
	SupportEmotions     []Emotion            `json:"supportEmotions"`
	Availability        []AvailabilityWindow `json:"availability"`
	CurrentStatus       CreatorStatus        `json:"currentStatus"`
	Rating              float64              `json:"rating"`
	SupportCount        int                  `json:"supportCount"`
}

// SupportSettings is a partial update of a creator's support configuration.
// Nil slices leave the stored value untouched.
type SupportSettings struct {
	AvailableForSupport bool
	SupportEmotions     []Emotion
	Availability        []AvailabilityWindow
}
