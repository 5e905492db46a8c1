package domain

import "time"

// Expert is read-only from the availability subsystem's point of view.
type Expert struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Bio          string    `json:"bio"`
	Avatar       string    `json:"avatar,omitempty"`
	Experience   int       `json:"experience"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"totalReviews"`
	HourlyRate   int64     `json:"hourlyRate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Slot is a bookable time of day on one expert's calendar date.
type Slot struct {
	Time     string `json:"time"`
	IsBooked bool   `json:"isBooked"`
}

// ExpertDetail is the expert profile together with its calendar.
type ExpertDetail struct {
	Expert
	SlotsByDate map[string][]Slot `json:"slotsByDate"`
}

type ExpertFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalExperts int `json:"totalExperts"`
}

type ExpertPage struct {
	Experts    []Expert   `json:"experts"`
	Pagination Pagination `json:"pagination"`
}
