package models

import "time"

// User represents an application user in the directory
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Sub          string    `bson:"sub" json:"sub"` // stable subject identifier
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Roles        []string  `bson:"roles" json:"roles"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
