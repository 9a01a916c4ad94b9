package models

// Identity is the resolved actor handed in by the auth layer. The chat
// engine never manages credentials, it only consumes this shape.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName picks the label messages are authored under.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		return i.Email
	}
	return "Anonymous"
}
