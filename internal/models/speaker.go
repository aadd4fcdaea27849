package models

import "time"

// SpeakerRequest is the payload for creating or updating a speaker.
type SpeakerRequest struct {
	Name         string  `json:"name" validate:"required"`
	Bio          *string `json:"bio"`
	AvatarURL    *string `json:"avatar_url"`
	LinkedinURL  *string `json:"linkedin_url"`
	InstagramURL *string `json:"instagram_url"`
}

// Speaker represents an invited speaker profile.
type Speaker struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Bio          *string   `db:"bio" json:"bio,omitempty"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	LinkedinURL  *string   `db:"linkedin_url" json:"linkedin_url,omitempty"`
	InstagramURL *string   `db:"instagram_url" json:"instagram_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
