package model

import (
	"github.com/google/uuid"
)

type Pet struct {
	Base
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Species   string    `db:"species" json:"species"`
	Breed     *string   `db:"breed" json:"breed,omitempty"`
	BirthDate *string   `db:"birth_date" json:"birth_date,omitempty"`
}

type CreatePetRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Species   string  `json:"species" binding:"required,max=50"`
	Breed     *string `json:"breed" binding:"omitempty,max=100"`
	BirthDate *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
}

type UpdatePetRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Species   *string `json:"species" binding:"omitempty,max=50"`
	Breed     *string `json:"breed" binding:"omitempty,max=100"`
	BirthDate *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
}
