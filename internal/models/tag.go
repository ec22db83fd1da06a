package models

// Tag is a browsing category. Posts reference tags through post_tags.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:20;not null" json:"name"`
	Slug  string `gorm:"size:20;uniqueIndex;not null" json:"slug"`
	Image string `json:"image,omitempty"`
	Order int    `gorm:"column:sort_order;default:0" json:"order"`
}
