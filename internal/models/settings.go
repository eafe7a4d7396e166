package models

import (
	"fmt"
	"time"
)

// Settings bounds and defaults
const (
	MinScrollSpeed = 1
	MaxScrollSpeed = 100
	MinFontSize    = 20
	MaxFontSize    = 150
	MinPaddingX    = 0
	MaxPaddingX    = 45

	DefaultScrollSpeed = 30
	DefaultFontSize    = 48
	DefaultPaddingX    = 20
)

// Settings represents the prompter's display and playback preferences.
// It is a singleton row.
type Settings struct {
	ID          int       `json:"-" gorm:"type:integer;primaryKey;default:1;column:id"`
	ScrollSpeed int       `json:"scroll_speed" gorm:"type:integer;not null;default:30;column:scroll_speed" validate:"gte=1,lte=100"`
	FontSize    int       `json:"font_size" gorm:"type:integer;not null;default:48;column:font_size" validate:"gte=20,lte=150"`
	IsMirrored  bool      `json:"is_mirrored" gorm:"type:integer;not null;default:0;column:is_mirrored"`
	IsDarkMode  bool      `json:"is_dark_mode" gorm:"type:integer;not null;default:1;column:is_dark_mode"`
	PaddingX    int       `json:"padding_x" gorm:"type:integer;not null;default:20;column:padding_x" validate:"gte=0,lte=45"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		ID:          1,
		ScrollSpeed: DefaultScrollSpeed,
		FontSize:    DefaultFontSize,
		IsMirrored:  false,
		IsDarkMode:  true,
		PaddingX:    DefaultPaddingX,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Validate checks every field against its allowed range
func (s *Settings) Validate() error {
	if s.ScrollSpeed < MinScrollSpeed || s.ScrollSpeed > MaxScrollSpeed {
		return fmt.Errorf("scroll speed %d out of range [%d, %d]", s.ScrollSpeed, MinScrollSpeed, MaxScrollSpeed)
	}
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return fmt.Errorf("font size %d out of range [%d, %d]", s.FontSize, MinFontSize, MaxFontSize)
	}
	if s.PaddingX < MinPaddingX || s.PaddingX > MaxPaddingX {
		return fmt.Errorf("padding %d out of range [%d, %d]", s.PaddingX, MinPaddingX, MaxPaddingX)
	}
	return nil
}
