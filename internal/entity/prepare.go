package entity

import (
	"fmt"
	"strings"

	dErrors "signet/pkg/domain-errors"
)

// PreparedGroup is a denormalized group record with members in first-seen
// membership-row order. Duplicate rows are replayed faithfully, not deduped.
type PreparedGroup struct {
	ID       string   `json:"id"`
	Users    []string `json:"users"`
	Accounts []string `json:"accounts"`
}

// PreparedData is the read-only, id-indexed structure the rule program
// queries in O(1). Which group maps are populated depends on the schema
// version the data set declares.
type PreparedData struct {
	Users       map[string]User             `json:"users"`
	Accounts    map[string]Account          `json:"accounts"`
	AddressBook map[string]AddressBookEntry `json:"addressBook"`
	Tokens      map[string]Token            `json:"tokens"`

	UserGroups    map[string]*PreparedGroup `json:"userGroups,omitempty"`
	AccountGroups map[string]*PreparedGroup `json:"accountGroups,omitempty"`
	Groups        map[string]*PreparedGroup `json:"groups,omitempty"`
}

type transform func(Entities) PreparedData

// transforms is the version-indexed table of entity transforms. Prepare picks
// one by the declared schema version.
var transforms = map[SchemaVersion]transform{
	SchemaV1: prepareV1,
	SchemaV2: prepareV2,
}

// Prepare denormalizes raw entities for rule evaluation. Pure and
// deterministic; assumes input already validated by the data source.
func Prepare(entities Entities, version SchemaVersion) (PreparedData, error) {
	t, ok := transforms[version]
	if !ok {
		return PreparedData{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported entity schema version %q", version))
	}
	return t(entities), nil
}

func prepareV1(entities Entities) PreparedData {
	key := func(id string) string { return id }
	data := indexCollections(entities, key)

	data.UserGroups = make(map[string]*PreparedGroup, len(entities.UserGroups))
	for _, g := range entities.UserGroups {
		data.UserGroups[key(g.ID)] = &PreparedGroup{ID: g.ID, Users: []string{}, Accounts: []string{}}
	}
	data.AccountGroups = make(map[string]*PreparedGroup, len(entities.AccountGroups))
	for _, g := range entities.AccountGroups {
		data.AccountGroups[key(g.ID)] = &PreparedGroup{ID: g.ID, Users: []string{}, Accounts: []string{}}
	}
	foldUserMembers(data.UserGroups, entities.UserGroupMembers, key)
	foldAccountMembers(data.AccountGroups, entities.AccountGroupMembers, key)
	return data
}

func prepareV2(entities Entities) PreparedData {
	// Case-insensitive lookups are mandatory in V2 so rule comparisons never
	// fail on address casing.
	key := strings.ToLower
	data := indexCollections(entities, key)

	data.Groups = make(map[string]*PreparedGroup, len(entities.Groups))
	for _, g := range entities.Groups {
		data.Groups[key(g.ID)] = &PreparedGroup{ID: g.ID, Users: []string{}, Accounts: []string{}}
	}
	foldUserMembers(data.Groups, entities.UserGroupMembers, key)
	foldAccountMembers(data.Groups, entities.AccountGroupMembers, key)
	return data
}

func indexCollections(entities Entities, key func(string) string) PreparedData {
	data := PreparedData{
		Users:       make(map[string]User, len(entities.Users)),
		Accounts:    make(map[string]Account, len(entities.Accounts)),
		AddressBook: make(map[string]AddressBookEntry, len(entities.AddressBook)),
		Tokens:      make(map[string]Token, len(entities.Tokens)),
	}
	for _, u := range entities.Users {
		data.Users[key(u.ID)] = u
	}
	for _, a := range entities.Accounts {
		data.Accounts[key(a.ID)] = a
	}
	for _, e := range entities.AddressBook {
		data.AddressBook[key(e.ID)] = e
	}
	for _, t := range entities.Tokens {
		data.Tokens[key(t.ID)] = t
	}
	return data
}

func foldUserMembers(groups map[string]*PreparedGroup, members []UserGroupMember, key func(string) string) {
	for _, m := range members {
		g, ok := groups[key(m.GroupID)]
		if !ok {
			g = &PreparedGroup{ID: m.GroupID, Users: []string{}, Accounts: []string{}}
			groups[key(m.GroupID)] = g
		}
		g.Users = append(g.Users, m.UserID)
	}
}

func foldAccountMembers(groups map[string]*PreparedGroup, members []AccountGroupMember, key func(string) string) {
	for _, m := range members {
		g, ok := groups[key(m.GroupID)]
		if !ok {
			g = &PreparedGroup{ID: m.GroupID, Users: []string{}, Accounts: []string{}}
			groups[key(m.GroupID)] = g
		}
		g.Accounts = append(g.Accounts, m.AccountID)
	}
}
