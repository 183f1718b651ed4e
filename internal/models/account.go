package models

// Account is a user as served by GET /api/accounts.
type Account struct {
	UserID         uint   `json:"userId"`
	Nickname       string `json:"nickname"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// FindAccount returns the account with the given id, or nil.
func FindAccount(accounts []Account, userID uint) *Account {
	for i := range accounts {
		if accounts[i].UserID == userID {
			return &accounts[i]
		}
	}
	return nil
}

// FindAccountByEmail returns the account whose email matches exactly, or nil.
func FindAccountByEmail(accounts []Account, email string) *Account {
	if email == "" {
		return nil
	}
	for i := range accounts {
		if accounts[i].Email == email {
			return &accounts[i]
		}
	}
	return nil
}
