package domain

import "time"

// Address labels.
const (
	AddressLabelHome  = "HOME"
	AddressLabelWork  = "WORK"
	AddressLabelOther = "OTHER"
)

// Address is a customer's shipping address. At most one address per user is
// the default.
type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FullName     string    `json:"fullName"`
	PhoneNumber  string    `json:"phoneNumber"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	IsDefault    bool      `json:"isDefault"`
	AddressLabel string    `json:"addressLabel"`
	CustomLabel  *string   `json:"customLabel,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsValidAddressLabel checks if a label string is valid.
func IsValidAddressLabel(label string) bool {
	switch label {
	case AddressLabelHome, AddressLabelWork, AddressLabelOther:
		return true
	}
	return false
}

// NormalizeLabel drops CustomLabel unless the label is OTHER.
func (a *Address) NormalizeLabel() {
	if a.AddressLabel == "" {
		a.AddressLabel = AddressLabelHome
	}
	if a.AddressLabel != AddressLabelOther {
		a.CustomLabel = nil
	}
}

// DisplayLabel is the label a shopper sees.
func (a *Address) DisplayLabel() string {
	if a.AddressLabel == AddressLabelOther && a.CustomLabel != nil && *a.CustomLabel != "" {
		return *a.CustomLabel
	}
	return a.AddressLabel
}
