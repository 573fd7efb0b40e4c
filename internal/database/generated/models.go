package queries

import (
	"database/sql"
)

type ActivityLog struct {
	ID          int64          `json:"id"`
	Timestamp   float64        `json:"timestamp"`
	Category    string         `json:"category"`
	Duration    int64          `json:"duration"`
	WindowTitle string         `json:"window_title"`
	Source      string         `json:"source"`
	Synced      int64          `json:"synced"`
	LocalDate   sql.NullString `json:"local_date"`
}
