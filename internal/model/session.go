package model

// Session identifies the signed-in user. It is passed explicitly to the
// components that stamp ownership on new rows.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
