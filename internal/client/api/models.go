package api

import "time"

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type User struct {
	ID            string    `json:"id"`
	UserName      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	RegisteredAt  time.Time `json:"registered_at"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Roles         []string  `json:"roles"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvatarUpload is a presigned slot for a new avatar object.
type AvatarUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

type Subcategory struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	ReviewsCount int    `json:"reviews_count"`
}

type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ReviewsCount  int           `json:"reviews_count"`
	Subcategories []Subcategory `json:"subcategories"`
}
