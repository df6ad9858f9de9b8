package models

import "time"

// Project is a portfolio entry. Tech is stored as one delimited string and
// exposed as an ordered list.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tech        TagList   `json:"tech"`
	Image       string    `json:"image"`
	Cover       string    `json:"cover"`
	Source      string    `json:"source"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectPatch carries a partial update; nil fields keep their prior value.
type ProjectPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tech        *TagList `json:"tech"`
	Image       *string  `json:"image"`
	Cover       *string  `json:"cover"`
	Source      *string  `json:"source"`
	Details     *string  `json:"details"`
}

// Apply copies every non-nil field of p onto dst.
func (p ProjectPatch) Apply(dst *Project) {
	setIf(&dst.Title, p.Title)
	setIf(&dst.Description, p.Description)
	if p.Tech != nil {
		dst.Tech = *p.Tech
	}
	setIf(&dst.Image, p.Image)
	setIf(&dst.Cover, p.Cover)
	setIf(&dst.Source, p.Source)
	setIf(&dst.Details, p.Details)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
