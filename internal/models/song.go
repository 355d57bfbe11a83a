package models

import (
	"time"

	"gorm.io/gorm"
)

// Song outcome statuses, mirroring the job runner's terminal states.
const (
	SongStatusCompleted = "completed"
	SongStatusTimedOut  = "timed_out"
	SongStatusCrashed   = "crashed"
	SongStatusMalformed = "malformed_output"
)

// Song records one composition request and its outcome. Audio bytes are
// returned inline to the caller and not persisted; the record keeps the
// request parameters and structural metadata for history and diagnostics.
type Song struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`

	Lyrics string `gorm:"type:text;not null" json:"lyrics"`
	Genre  string `gorm:"not null" json:"genre"`
	Tempo  int    `gorm:"not null" json:"tempo"`
	Key    string `gorm:"column:song_key;not null" json:"key"`

	Status     string  `gorm:"not null;index" json:"status"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	// Structure is the comma-joined section label sequence.
	Structure string `gorm:"type:text" json:"structure"`
	// MelodyNotes is the comma-joined diagnostic melody trace.
	MelodyNotes string `gorm:"type:text" json:"melody_notes"`

	CreditsCharged int    `gorm:"not null" json:"credits_charged"`
	DurationMS     int    `gorm:"not null" json:"duration_ms"` // wall-clock job time
	RequestID      string `gorm:"index" json:"request_id"`
	Detail         string `gorm:"type:text" json:"detail,omitempty"` // failure diagnostic
}
