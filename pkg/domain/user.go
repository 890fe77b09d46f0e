package domain

// User is a household member. Accounts are created outside this client.
type User struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	PushToken string `json:"notificationsToken,omitempty"`
}

// Validate checks a user decoded from the API.
func (u User) Validate() error {
	if u.ID == "" {
		return malformed("user", "missing _id")
	}
	return nil
}

// Usernames resolves owner ids to usernames, keeping ids it cannot resolve.
func Usernames(users []User, ids []string) []string {
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, id)
	}
	return names
}
