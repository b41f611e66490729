package domain

import "time"

type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Message is one entry of a conversation log. Messages are never edited once
// appended.
type Message struct {
	Text   string `json:"text"`
	Author Author `json:"author"`
}

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodSick    Mood = "sick"
	MoodUnknown Mood = "unknown"
)

// Image is a captured still photo of a plant.
type Image struct {
	Data     []byte
	MimeType string
}

// Empty reports whether img carries no pixels. A nil *Image is empty.
func (img *Image) Empty() bool {
	return img == nil || len(img.Data) == 0
}

type Plant struct {
	ID         int64     `json:"id"`
	StorageKey string    `json:"-"`
	MimeType   string    `json:"mime_type"`
	CapturedAt time.Time `json:"captured_at"`
}

// Analysis is a persisted mood analysis of a plant photo. FailureKind is empty
// when the backend answered.
type Analysis struct {
	ID             int64     `json:"id"`
	PlantID        int64     `json:"plant_id"`
	Mood           Mood      `json:"mood"`
	Recommendation string    `json:"recommendation"`
	FailureKind    string    `json:"failure,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
