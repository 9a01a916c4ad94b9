package chat

import "github.com/yourorg/helpdesk/chat-service/internal/models"

// contacts is the static directory backing the UI's contact picker.
// A real deployment replaces this with the identity provider's user
// directory.
var contacts = []models.Contact{
	{
		ID:         "user1",
		Name:       "John Doe",
		Email:      "john@example.com",
		Status:     "online",
		Avatar:     "https://ui-avatars.com/api/?name=John+Doe&background=random",
		Role:       "Developer",
		Department: "Engineering",
	},
	{
		ID:         "user2",
		Name:       "Alice Smith",
		Email:      "alice@example.com",
		Status:     "offline",
		Avatar:     "https://ui-avatars.com/api/?name=Alice+Smith&background=random",
		Role:       "Designer",
		Department: "Design",
	},
	{
		ID:         "user3",
		Name:       "Bob Wilson",
		Email:      "bob@example.com",
		Status:     "online",
		Avatar:     "https://ui-avatars.com/api/?name=Bob+Wilson&background=random",
		Role:       "Product Manager",
		Department: "Product",
	},
	{
		ID:         "user4",
		Name:       "Emma Davis",
		Email:      "emma@example.com",
		Status:     "online",
		Avatar:     "https://ui-avatars.com/api/?name=Emma+Davis&background=random",
		Role:       "Support Specialist",
		Department: "Customer Support",
	},
	{
		ID:         "user5",
		Name:       "Michael Brown",
		Email:      "michael@example.com",
		Status:     "offline",
		Avatar:     "https://ui-avatars.com/api/?name=Michael+Brown&background=random",
		Role:       "Sales Executive",
		Department: "Sales",
	},
}

// Contacts returns the contact directory.
func Contacts() []models.Contact {
	out := make([]models.Contact, len(contacts))
	copy(out, contacts)
	return out
}
