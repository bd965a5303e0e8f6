package models

// Category groups locations, e.g. "Sports hall".
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Location is a bookable venue. The admin API calls its label "title" while
// the public endpoints use "name"; DisplayName hides that difference.
type Location struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title,omitempty"`
	Name        string    `json:"name,omitempty"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CategoryID  int64     `json:"category_id"`
	Category    *Category `json:"category,omitempty"`
}

// DisplayName returns the title, falling back to the public name.
func (l *Location) DisplayName() string {
	if l == nil {
		return ""
	}
	if l.Title != "" {
		return l.Title
	}
	return l.Name
}

// CategoryName returns the embedded category name or "" when absent.
func (l *Location) CategoryName() string {
	if l == nil || l.Category == nil {
		return ""
	}
	return l.Category.Name
}

// LocationFilter is the admin location list query.
type LocationFilter struct {
	Search     string
	CategoryID int64
}

// LocationForm carries the admin location fields. Image is optional; when set
// the form is sent as multipart.
type LocationForm struct {
	Title       string
	CategoryID  int64
	Description string
	Address     string
	Image       *Upload
}

// Upload is an image file attached to a form submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
