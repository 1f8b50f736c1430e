package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
)

type Label struct {
	ID        ident.ID  `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
