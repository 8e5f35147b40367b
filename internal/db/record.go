package db

import (
	"time"
)

// ArchiveRecord describes one stored document.
type ArchiveRecord struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Services  int       `json:"services"`
	CreatedAt time.Time `json:"created_at"`
}
