// Package models holds the API's JSON shapes as the CLI client sees them.
package models

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

type Business struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"ownerId"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
}

type Review struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	BusinessID int64  `json:"businessId"`
	Dollars    int    `json:"dollars"`
	Stars      int    `json:"stars"`
	Review     string `json:"review,omitempty"`
}

// Photo carries a presigned download URL when the server has object storage
// configured.
type Photo struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	BusinessID int64  `json:"businessId"`
	Caption    string `json:"caption,omitempty"`
	URL        string `json:"url,omitempty"`
}
