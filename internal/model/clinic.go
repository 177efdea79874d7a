package model

// Clinic status constants
const (
	ClinicStatusActive   = "active"
	ClinicStatusInactive = "inactive"
)

type Clinic struct {
	Base
	Name           string   `db:"name" json:"name"`
	Address        string   `db:"address" json:"address"`
	Phone          *string  `db:"phone" json:"phone,omitempty"`
	OperatingHours string   `db:"operating_hours" json:"operating_hours"`
	Latitude       *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64 `db:"longitude" json:"longitude,omitempty"`
	Status         string   `db:"status" json:"status"`
}

type ClinicFilter struct {
	Pagination
	Search string `form:"search"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive"`
}

type CreateClinicRequest struct {
	Name           string   `json:"name" binding:"required,max=200"`
	Address        string   `json:"address" binding:"required"`
	Phone          *string  `json:"phone"`
	OperatingHours string   `json:"operating_hours" binding:"omitempty,ophours"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type UpdateClinicRequest struct {
	Name           *string  `json:"name" binding:"omitempty,max=200"`
	Address        *string  `json:"address"`
	Phone          *string  `json:"phone"`
	OperatingHours *string  `json:"operating_hours" binding:"omitempty,ophours"`
	Latitude       *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" binding:"omitempty,longitude"`
	Status         *string  `json:"status" binding:"omitempty,oneof=active inactive"`
}
