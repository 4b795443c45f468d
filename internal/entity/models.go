package entity

// Raw, relational entity records as supplied by the (already signature
// verified) data source. The engine trusts this input completely and never
// mutates it.

// SchemaVersion selects the shape of the group collections. V1 keeps user and
// account groups separate; V2 unifies them and mandates case-insensitive ids.
type SchemaVersion string

const (
	SchemaV1 SchemaVersion = "1"
	SchemaV2 SchemaVersion = "2"
)

type User struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Account struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	AccountType string `json:"accountType"`
	ChainID     uint64 `json:"chainId,omitempty"`
}

type AddressBookEntry struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	ChainID        uint64 `json:"chainId"`
	Classification string `json:"classification,omitempty"`
	AccountType    string `json:"accountType,omitempty"`
}

type Token struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	ChainID  uint64 `json:"chainId"`
	Decimals int    `json:"decimals"`
}

type Group struct {
	ID string `json:"id"`
}

type UserGroupMember struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

type AccountGroupMember struct {
	AccountID string `json:"accountId"`
	GroupID   string `json:"groupId"`
}

// Entities is one tenant's full entity state for an evaluation.
type Entities struct {
	Users       []User             `json:"users"`
	Accounts    []Account          `json:"accounts"`
	AddressBook []AddressBookEntry `json:"addressBook"`
	Tokens      []Token            `json:"tokens"`

	// V1 collections.
	UserGroups    []Group `json:"userGroups,omitempty"`
	AccountGroups []Group `json:"accountGroups,omitempty"`

	// V2 collection.
	Groups []Group `json:"groups,omitempty"`

	UserGroupMembers    []UserGroupMember    `json:"userGroupMembers"`
	AccountGroupMembers []AccountGroupMember `json:"accountGroupMembers"`
}
