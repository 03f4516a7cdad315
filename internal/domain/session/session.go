// Package session contains the domain model for the portal authentication
// session: the cookie set representing one logged-in identity and the rule
// that decides when a response establishes a login.
package session

// Cookie is one named session cookie as issued by the portal.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// RememberMeCookie is the marker cookie the portal issues on a successful
// login. The portal sets it exactly twice (once by the auth filter, once by
// the remember-me filter); any other count means the login did not complete.
const RememberMeCookie = "rememberMe"

// requiredMarkerCount is the exact number of marker cookies a successful
// login response carries. A looser threshold admits false logins; a stricter
// one causes false negatives on servers issuing extra cookies.
const requiredMarkerCount = 2

// IsLoginResponse reports whether a cookie set received from the given
// request URL establishes a login: the URL must be the canonical login
// endpoint and the set must contain exactly two rememberMe cookies.
func IsLoginResponse(requestURL, loginURL string, cookies []Cookie) bool {
	if requestURL != loginURL {
		return false
	}
	count := 0
	for _, c := range cookies {
		if c.Name == RememberMeCookie {
			count++
		}
	}
	return count == requiredMarkerCount
}

// IsLoggedIn reports whether a persisted cookie snapshot represents an
// established session, derived purely from cookie contents.
func IsLoggedIn(cookies []Cookie) bool {
	count := 0
	for _, c := range cookies {
		if c.Name == RememberMeCookie {
			count++
		}
	}
	return count == requiredMarkerCount
}
