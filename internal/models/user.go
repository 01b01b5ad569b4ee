package models

import "time"

// User is the authenticated actor of a request. Resolved fresh per
// request by the auth middleware, never cached across requests.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
