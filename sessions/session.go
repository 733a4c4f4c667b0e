package sessions

import "strings"

// Role is the display role of the logged in user. It drives which console
// (admin back-office, boutique, customer portal) is shown and is never
// enforced client side.
type Role string

const (
	RoleUnknown       Role = ""
	RoleAdministrator Role = "administrator"
	RoleShopManager   Role = "shop-manager"
	RoleAgent         Role = "agent"
	RoleCustomer      Role = "customer"
)

// ParseRole maps the spellings used by the backend onto the closed role set.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "admin", "role_admin", "super_admin":
		return RoleAdministrator
	case "shop-manager", "shop_manager", "manager", "boutique_manager", "role_manager":
		return RoleShopManager
	case "agent", "boutique_agent", "role_agent":
		return RoleAgent
	case "customer", "client", "role_customer":
		return RoleCustomer
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	return string(r)
}

// IsShopRole is true for the boutique console roles.
func (r Role) IsShopRole() bool {
	return r == RoleShopManager || r == RoleAgent
}

// Identity is a read-only summary of who is logged in.
type Identity struct {
	DisplayName string // customer name or username
	Role        Role
	ScopeID     string // customer id for the portal, boutique id for shop roles
}

// Session holds the credentials of the current user.
// AccessToken is set if and only if Identity is non-nil.
type Session struct {
	AccessToken  string
	RefreshToken string // may be empty while authenticated; refresh is then impossible
	Identity     *Identity
}

func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.Identity != nil
}

func (s Session) clone() Session {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}
