package session

// Role is the account role assigned by the backend.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a role the backend accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the authenticated account as returned by /auth/me.
type User struct {
	ID        int64  `json:"id"`
	SteamID   string `json:"steamId"`
	Nickname  string `json:"nickname"`
	Role      Role   `json:"role"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"createdAt,omitempty"` // backend local date-time, no zone
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginRequest struct {
	SteamID  string `json:"steamId"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	SteamID  string `json:"steamId"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}
