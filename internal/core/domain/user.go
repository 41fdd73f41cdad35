package domain

import "time"

// User models a registered author.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Profile   string    `json:"profile,omitempty" db:"profile"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Author is the public projection of a User embedded in news read views.
type Author struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Profile string `json:"profile,omitempty"`
}

// AuthorOf projects u into an Author.
func AuthorOf(u *User) *Author {
	if u == nil {
		return nil
	}
	return &Author{ID: u.ID, Name: u.Name, Profile: u.Profile}
}
