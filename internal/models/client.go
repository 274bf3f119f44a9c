package models

import "time"

// CartItem is a product snapshot in the visitor's cart. Identity is
// (Product.ID, Size). It never reaches the backend.
type CartItem struct {
	Product  Product `json:"product"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

// AuthSession is the signed-in admin state stored for a session cookie.
type AuthSession struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}

// ClientState is the SQL row behind the sql state store driver.
type ClientState struct {
	Key       string     `gorm:"primaryKey;size:191"`
	Value     []byte     `gorm:"type:longblob"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ClientState) TableName() string { return "client_states" }
