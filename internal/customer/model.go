package customer

import "time"

type Membership string

const (
	MembershipBronze Membership = "bronze"
	MembershipSilver Membership = "silver"
	MembershipGold   Membership = "gold"
)

func (m Membership) Valid() bool {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return true
	}
	return false
}

type Customer struct {
	ID         string     `json:"customerId"`
	UserID     string     `json:"userId"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birthDate,omitempty"`
	Membership Membership `json:"membership"`
}
