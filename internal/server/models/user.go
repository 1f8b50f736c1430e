// Package models defines the documents the server persists.
package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
)

// User is created at signup and never mutated afterwards.
type User struct {
	ID           ident.ID  `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash []byte    `bson:"password" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
