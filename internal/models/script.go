package models

import (
	"time"

	"github.com/google/uuid"
)

// Script represents a teleprompter script
type Script struct {
	ID        uuid.UUID `json:"id" yaml:"id" gorm:"type:text;primaryKey;column:id"`
	Title     string    `json:"title" yaml:"title" gorm:"type:text;not null;column:title" validate:"required,min=1,max=255"`
	Content   string    `json:"content" yaml:"content" gorm:"type:text;not null;default:'';column:content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewScript creates a new Script with generated UUID and timestamps
func NewScript(title, content string) *Script {
	now := time.Now().UTC()
	return &Script{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
