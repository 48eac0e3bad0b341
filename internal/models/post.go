package models

import (
	"time"
)

// Post represents a blog post. Published flips from draft to published once.
type Post struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Title     string       `gorm:"not null" json:"title"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	ImageURL  *string      `json:"imageUrl"`
	VideoURL  *string      `json:"videoUrl"`
	EmbedCode *string      `gorm:"type:text" json:"embedCode"`
	Category  *string      `gorm:"size:50;index" json:"category"`
	Published bool         `gorm:"not null;default:false;index" json:"published"`
	AuthorID  uint         `gorm:"not null;index" json:"authorId"`
	Author    *UserSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PostView is the public projection returned after creating a post.
type PostView struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category"`
	Published bool      `json:"published"`
	ImageURL  *string   `json:"imageUrl"`
	VideoURL  *string   `json:"videoUrl"`
	EmbedCode *string   `json:"embedCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// ViewOf projects a post onto PostView.
func ViewOf(p *Post) *PostView {
	return &PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		Published: p.Published,
		ImageURL:  p.ImageURL,
		VideoURL:  p.VideoURL,
		EmbedCode: p.EmbedCode,
		CreatedAt: p.CreatedAt,
	}
}
