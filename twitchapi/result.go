package twitchapi

// Status is the outcome of a Helix lookup.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusUnauthorized
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusUnauthorized:
		return "unauthorized"
	default:
		return "not_found"
	}
}

// Authorizable is implemented by results that can report a rejected bearer token.
type Authorizable interface {
	Unauthorized() bool
}

// LookupResult is the outcome of resolving a login to a user id.
// UserID is only set when Status is StatusFound.
type LookupResult struct {
	Status Status
	UserID string
}

func (r LookupResult) Unauthorized() bool { return r.Status == StatusUnauthorized }

// ClipResult is the outcome of fetching a recent clip.
// URL is only set when Status is StatusFound.
type ClipResult struct {
	Status Status
	URL    string
}

func (r ClipResult) Unauthorized() bool { return r.Status == StatusUnauthorized }

func userFound(id string) LookupResult { return LookupResult{Status: StatusFound, UserID: id} }
func clipFound(u string) ClipResult { return ClipResult{Status: StatusFound, URL: u} }
