package api

// User is the identity record returned by the authentication endpoints.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TokenGrant is the response from the login and register endpoints.
// Both tokens are opaque to the client; the access token is attached as a
// bearer credential and the refresh token is only ever sent back to the
// refresh endpoint.
type TokenGrant struct {
	// AccessToken is the short-lived credential sent with each API request.
	AccessToken string `json:"access_token"`

	// RefreshToken is the long-lived credential used solely to obtain a new
	// access token. Stored durably by the caller.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// User is the authenticated identity the grant was issued for.
	User User `json:"user"`
}

// RefreshGrant is the response from the refresh endpoint. Only the access
// token rotates; the refresh token is untouched.
type RefreshGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Registration is the input to the register endpoint.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// SubscriptionType identifies a paid tier.
type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "monthly"
	SubscriptionAnnual  SubscriptionType = "annual"
)

// MonetizationStatus is the backend's gating snapshot. The backend owns all
// of these values; the client consumes them and never recomputes them (in
// particular the monthly counter reset and the post-trial flag).
type MonetizationStatus struct {
	IsPremium          bool   `json:"is_premium"`
	TrialDaysLeft      int    `json:"trial_days_left"`
	QuestionsThisMonth int    `json:"questions_this_month"`
	ActiveChildID      string `json:"active_child_id"`
	SubscriptionType   string `json:"subscription_type"`

	// PostTrialSetupRequired is true when the trial has expired, the user is
	// not premium, and no active child has been chosen yet.
	PostTrialSetupRequired bool `json:"is_post_trial_setup_required"`
}

// Child is a child profile belonging to the authenticated user.
type Child struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BirthYear int    `json:"birth_year"`
}
