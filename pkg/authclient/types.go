package authclient

// User is the account record returned by the auth API. Exactly one of the two
// profile blocks is populated, depending on the account's role.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsInvestor   bool   `json:"is_investor"`
	IsIndividual bool   `json:"is_individual"`

	InvestorProfile *InvestorProfile `json:"investorprofile,omitempty"`
	BusinessProfile *BusinessProfile `json:"businessprofile,omitempty"`
}

type InvestorProfile struct {
	ContactInfo string  `json:"contact_info"`
	AddressInfo string  `json:"address_info"`
	IsLocal     bool    `json:"is_local"`
	Avatar      *string `json:"avatar"`
	Interests   []int64 `json:"interests"`
}

type BusinessProfile struct {
	BusinessName string  `json:"business_name"`
	ContactInfo  string  `json:"contact_info"`
	AddressInfo  string  `json:"address_info"`
	IsLocal      bool    `json:"is_local"`
	Avatar       *string `json:"avatar"`
	Category     int64   `json:"category"`
}

// Sector is a public reference-data entry.
type Sector struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterData carries the fields sent at registration.
type RegisterData struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	IsInvestor   bool   `json:"is_investor"`
	IsIndividual bool   `json:"is_individual"`
}

// ProfileUpdate is a partial profile update; nil fields are omitted from the
// request and stay unchanged server-side.
type ProfileUpdate struct {
	ContactInfo  *string `json:"contact_info,omitempty"`
	AddressInfo  *string `json:"address_info,omitempty"`
	IsLocal      *bool   `json:"is_local,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	Interests    []int64 `json:"interests,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Category     *int64  `json:"category,omitempty"`
}

// LoginResponse is the success body of the login endpoint.
type LoginResponse struct {
	Message string `json:"message"`
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
	User    *User  `json:"user"`
}

// RegisterResponse is the success body of the register endpoint.
type RegisterResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// MessageResponse is the success body of the message-only endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// RefreshResponse is the success body of the token refresh endpoint.
type RefreshResponse struct {
	Access string `json:"access"`
}
