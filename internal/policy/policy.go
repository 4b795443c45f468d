package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// Effect is the outcome a policy produces when every criterion matches.
type Effect string

const (
	EffectPermit Effect = "permit"
	EffectForbid Effect = "forbid"
)

// ParseEffect validates an effect string.
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case EffectPermit:
		return EffectPermit, nil
	case EffectForbid:
		return EffectForbid, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown policy effect %q", s))
}

// Policy is a named, ordered list of criteria plus a permit/forbid outcome.
// All criteria are ANDed; a policy with no criteria always matches. Criterion
// order does not affect the match result but is preserved in generated source.
type Policy struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	When        []Criterion `json:"when"`
	Then        Effect      `json:"then"`
}

func (p *Policy) UnmarshalJSON(data []byte) error {
	type alias Policy
	var a struct {
		alias
		Then string `json:"then"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	then, err := ParseEffect(a.Then)
	if err != nil {
		return err
	}
	*p = Policy(a.alias)
	p.Then = then
	return nil
}

// Set is an ordered policy list compiled together into one bundle.
type Set []Policy

// idNamespace seeds deterministic policy ids so a set without ids keeps a
// stable fingerprint across compilations.
var idNamespace = uuid.MustParse("2c5ea4c0-4067-11e9-8bad-9b1deb4d3b7d")

// AssignIDs fills in missing policy ids. Ids are part of emitted reasons, so
// every policy must carry one before compilation. Derived ids are content
// addressed: the same policy at the same position always gets the same id.
func (s Set) AssignIDs() {
	for i := range s {
		if s[i].ID == "" {
			raw, _ := json.Marshal(s[i])
			seed := append([]byte(strconv.Itoa(i)+":"), raw...)
			s[i].ID = uuid.NewSHA1(idNamespace, seed).String()
		}
	}
}

// Fingerprint is the content hash of the serialized set. It is the caching
// identity for compiled bundles; identical sets share one bundle.
func (s Set) Fingerprint() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "serialize policy set", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
