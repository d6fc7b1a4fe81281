package models

// AccountType is the account kind GitHub declares for a login
type AccountType string

const (
	AccountTypeUser         AccountType = "User"
	AccountTypeOrganization AccountType = "Organization"
	AccountTypeBot          AccountType = "Bot"
	AccountTypeUnknown      AccountType = "Unknown"
)

// ParseAccountType maps the GitHub "type" field onto an AccountType
func ParseAccountType(s string) AccountType {
	switch AccountType(s) {
	case AccountTypeUser, AccountTypeOrganization, AccountTypeBot:
		return AccountType(s)
	default:
		return AccountTypeUnknown
	}
}

// AccountMetadata is the result of resolving a login
type AccountMetadata struct {
	Login   string      `json:"login"`
	Exists  bool        `json:"exists"`
	Type    AccountType `json:"type"`
	RawType string      `json:"raw_type,omitempty"`
}
