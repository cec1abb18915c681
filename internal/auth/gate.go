package auth

import "encoding/json"

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectHome
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectHome:
		return "redirect_home"
	case OutcomeAllow:
		return "allow"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Session is the result of resolving who is making a request. Settled is
// false while that resolution could not complete.
type Session struct {
	Actor   *Actor
	Settled bool
}

// Decision is what the gate tells the caller to do for one navigation.
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	RedirectTo string  `json:"redirect_to,omitempty"`
	From       string  `json:"from,omitempty"`
}

func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Authorize decides whether the session may open a location guarded by
// requiredRoles. A nil requiredRoles admits any signed-in actor; a non-nil
// empty list admits nobody. It has no side effects.
func Authorize(s Session, requiredRoles []Role, from string) Decision {
	if !s.Settled {
		return Decision{Outcome: OutcomePending}
	}
	if s.Actor == nil {
		return Decision{Outcome: OutcomeRedirectLogin, RedirectTo: LoginPath, From: from}
	}
	if requiredRoles == nil {
		return Decision{Outcome: OutcomeAllow}
	}
	for _, r := range requiredRoles {
		if r == s.Actor.Role {
			return Decision{Outcome: OutcomeAllow}
		}
	}
	return Decision{Outcome: OutcomeRedirectHome, RedirectTo: HomePath}
}
