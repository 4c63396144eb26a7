// internal/domain/alert/entity.go
package alert

import "time"

const (
	TypeOrder  = "order"
	TypeSystem = "system"
)

// Alert is one customer notification shown under the header bell
type Alert struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"-"`
	Type      string     `gorm:"size:30;not null" json:"type"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName overrides the table name
func (Alert) TableName() string { return "alerts" }
