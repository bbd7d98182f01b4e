package models

import "time"

type Review struct {
	ID        int64     `json:"id"`
	UserEmail string    `json:"user_email"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewStats struct {
	Count         int         `json:"count"`
	AverageRating float64     `json:"average_rating"`
	Histogram     map[int]int `json:"histogram"`
}
