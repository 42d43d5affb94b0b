package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User is the identity object returned by the auth endpoints.
type User struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	RestaurantID int64  `json:"restaurant_id"`
}

// authResponse is the wire shape shared by register, login and verify.
type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// LoginResult is a successful login: the token is always present.
type LoginResult struct {
	Message string
	Token   string
	User    *User
}

// RegisterResult is a successful registration. Token and User are only set
// when the backend chooses to return them; they do not log the user in.
type RegisterResult struct {
	Message string
	Token   string
	User    *User
}

// VerifyResult is a successful token check.
type VerifyResult struct {
	Message string
	User    *User
}

// Flag is a boolean the backend encodes as 0/1 in responses and accepts as
// a JSON boolean in requests.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", b)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

type ExpenseType struct {
	ID             int64  `json:"id"`
	TypeName       string `json:"type_name"`
	HasSubcategory Flag   `json:"has_subcategory"`
	IsActive       Flag   `json:"is_active"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type Subcategory struct {
	ID              int64  `json:"id"`
	ExpenseTypeID   int64  `json:"expense_type_id"`
	SubcategoryName string `json:"subcategory_name"`
	IsActive        Flag   `json:"is_active"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type expenseTypesResponse struct {
	ExpenseTypes []ExpenseType `json:"expenseTypes"`
}

type subcategoriesResponse struct {
	Subcategories []Subcategory `json:"subcategories"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
