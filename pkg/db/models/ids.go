package models

import "github.com/google/uuid"

// assignID fills a zero primary key. Postgres also defaults ids, but rows
// created through gorm always carry a client-side id so the same models work
// against sqlite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
