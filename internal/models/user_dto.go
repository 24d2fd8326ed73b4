package models

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest authenticates and issues a token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is a bearer access token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthStatusResponse reports whether authentication is enforced and, when a
// valid token accompanied the request, who the caller is.
type AuthStatusResponse struct {
	AuthEnabled bool   `json:"auth_enabled"`
	Username    string `json:"username,omitempty"`
}
