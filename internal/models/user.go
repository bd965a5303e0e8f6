package models

// User is the authenticated admin as reported by the backend.
type User struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Session is the persisted login of one browser.
type Session struct {
	Token string
	User  User
}

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
