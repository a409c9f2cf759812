package models

// RegisterRequest represents a registration request.
// Profile fields of the role not named by UserType are ignored.
type RegisterRequest struct {
	FirstName                  string  `json:"firstName"`
	LastName                   string  `json:"lastName"`
	Email                      string  `json:"email"`
	Phone                      *string `json:"phone,omitempty"`
	Password                   string  `json:"password"`
	UserType                   Role    `json:"userType"`
	University                 *string `json:"university,omitempty"`
	BusinessName               *string `json:"businessName,omitempty"`
	BusinessRegistrationNumber *string `json:"businessRegistrationNumber,omitempty"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string `json:"token"`
	UserType  Role   `json:"userType"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// VerifyResponse is returned by the token verification endpoint
type VerifyResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"userId"`
	UserType  Role   `json:"userType"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ValidationErrorResponse lists every failed validation rule
type ValidationErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}
