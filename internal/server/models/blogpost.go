package models

import "time"

// BlogPost is a blog entry. Date and ReadTime are display labels, not
// parsed values.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Date      string    `json:"date"`
	Category  string    `json:"category"`
	Image     string    `json:"image"`
	Cover     string    `json:"cover"`
	ReadTime  string    `json:"readTime"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlogPostPatch carries a partial update; nil fields keep their prior value.
type BlogPostPatch struct {
	Title    *string `json:"title"`
	Excerpt  *string `json:"excerpt"`
	Date     *string `json:"date"`
	Category *string `json:"category"`
	Image    *string `json:"image"`
	Cover    *string `json:"cover"`
	ReadTime *string `json:"readTime"`
	Content  *string `json:"content"`
}

func (p BlogPostPatch) Apply(dst *BlogPost) {
	setIf(&dst.Title, p.Title)
	setIf(&dst.Excerpt, p.Excerpt)
	setIf(&dst.Date, p.Date)
	setIf(&dst.Category, p.Category)
	setIf(&dst.Image, p.Image)
	setIf(&dst.Cover, p.Cover)
	setIf(&dst.ReadTime, p.ReadTime)
	setIf(&dst.Content, p.Content)
}
