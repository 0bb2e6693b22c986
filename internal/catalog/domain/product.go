package domain

import "time"

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Manufacturer string    `json:"manufacturer"`
	Price        float64   `json:"price"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}
