// Package routing decides where a session belongs: the login flow, the admin
// area or the customer area.
package routing

import "strings"

type State string

const (
	StateLoading               State = "loading"
	StateUnauthenticated       State = "unauthenticated"
	StateAuthenticatedAdmin    State = "authenticated-admin"
	StateAuthenticatedCustomer State = "authenticated-customer"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const (
	LoginPath    = "/auth/login"
	AdminHome    = "/admin"
	CustomerHome = "/client"
)

type Area string

const (
	AreaAuth   Area = "auth"
	AreaAdmin  Area = "admin"
	AreaClient Area = "client"
	AreaOther  Area = ""
)

// Session is what the session holder knows about the caller. RoleResolved is
// false while the role lookup for a signed-in user has not completed.
type Session struct {
	UserID       string
	Role         string
	RoleResolved bool
}

type Decision struct {
	State    State  `json:"state"`
	Redirect string `json:"redirect,omitempty"`
	Allow    bool   `json:"allow"`
}

func Resolve(s Session) State {
	switch {
	case s.UserID == "":
		return StateUnauthenticated
	case !s.RoleResolved:
		return StateLoading
	case s.Role == RoleAdmin:
		return StateAuthenticatedAdmin
	default:
		return StateAuthenticatedCustomer
	}
}

// Home is the landing path for an authenticated state, or the login path otherwise.
func Home(state State) string {
	switch state {
	case StateAuthenticatedAdmin:
		return AdminHome
	case StateAuthenticatedCustomer:
		return CustomerHome
	default:
		return LoginPath
	}
}

// AreaOf returns the area named by the first path segment. An "/api/v1" prefix is ignored.
func AreaOf(path string) Area {
	p := strings.TrimPrefix(path, "/api/v1")
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	switch Area(p) {
	case AreaAuth, AreaAdmin, AreaClient:
		return Area(p)
	default:
		return AreaOther
	}
}

func Decide(state State, path string) Decision {
	area := AreaOf(path)
	switch state {
	case StateLoading:
		return Decision{State: state}
	case StateUnauthenticated:
		if area == AreaAuth {
			return Decision{State: state, Allow: true}
		}
		return Decision{State: state, Redirect: LoginPath}
	}

	own := AreaClient
	if state == StateAuthenticatedAdmin {
		own = AreaAdmin
	}
	if area == own {
		return Decision{State: state, Allow: true}
	}
	return Decision{State: state, Redirect: Home(state)}
}
