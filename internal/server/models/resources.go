package models

// Business is a listing owned by a user.
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

// Review is a user's rating of a business.
type Review struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	BusinessID int64  `json:"businessId"`
	Dollars    int    `json:"dollars"`
	Stars      int    `json:"stars"`
	Review     string `json:"review,omitempty"`
}

// Photo is a user's picture of a business. ObjectKey locates the file in
// object storage; URL is a short-lived presigned link filled in on read.
type Photo struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	BusinessID int64  `json:"businessId"`
	Caption    string `json:"caption,omitempty"`
	ObjectKey  string `json:"-"`
	URL        string `json:"url,omitempty"`
}
