// Package entity defines the data model shared by detection, placeholder
// generation and the vault: entity kinds, detected matches, stored mappings
// and placeholder tokens.
package entity

import "time"

// Kind classifies a detected piece of sensitive data.
type Kind string

// Supported entity kinds.
const (
	KindPerson        Kind = "person"
	KindEmail         Kind = "email"
	KindCreditCard    Kind = "credit_card"
	KindSSN           Kind = "ssn"
	KindPhone         Kind = "phone"
	KindIPAddress     Kind = "ip_address"
	KindURL           Kind = "url"
	KindAPIKey        Kind = "api_key"
	KindAWSAccessKey  Kind = "aws_access_key"
	KindLocation      Kind = "location"
	KindOrganization  Kind = "organization"
	KindDate          Kind = "date"
	KindMedicalRecord Kind = "medical_record"
	KindAccountNumber Kind = "account_number"
	KindLicensePlate  Kind = "license_plate"
	KindDateOfBirth   Kind = "date_of_birth"
	KindBankAccount   Kind = "bank_account"
	KindDriverLicense Kind = "driver_license"
	KindPassport      Kind = "passport"
	KindAddress       Kind = "address"
	KindPostalCode    Kind = "postal_code"
)

// kindPrefixes maps each kind to its uppercase placeholder prefix.
// The mapping is bijective so a prefix unambiguously identifies the kind
// during deanonymization.
var kindPrefixes = map[Kind]string{
	KindPerson:        "PERSON",
	KindEmail:         "EMAIL",
	KindCreditCard:    "CREDIT_CARD",
	KindSSN:           "SSN",
	KindPhone:         "PHONE",
	KindIPAddress:     "IP_ADDRESS",
	KindURL:           "URL",
	KindAPIKey:        "API_KEY",
	KindAWSAccessKey:  "AWS_KEY",
	KindLocation:      "LOCATION",
	KindOrganization:  "ORGANIZATION",
	KindDate:          "DATE",
	KindMedicalRecord: "MRN",
	KindAccountNumber: "ACCOUNT",
	KindLicensePlate:  "LICENSE_PLATE",
	KindDateOfBirth:   "DATE_OF_BIRTH",
	KindBankAccount:   "BANK_ACCOUNT",
	KindDriverLicense: "DRIVER_LICENSE",
	KindPassport:      "PASSPORT",
	KindAddress:       "ADDRESS",
	KindPostalCode:    "POSTAL_CODE",
}

var prefixKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindPrefixes))
	for k, p := range kindPrefixes {
		m[p] = k
	}
	return m
}()

// Prefix returns the placeholder prefix for the kind (e.g. "EMAIL").
func (k Kind) Prefix() string {
	return kindPrefixes[k]
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	_, ok := kindPrefixes[k]
	return ok
}

// KindForPrefix resolves a placeholder prefix back to its kind.
func KindForPrefix(prefix string) (Kind, bool) {
	k, ok := prefixKinds[prefix]
	return k, ok
}

// AllKinds returns every known entity kind.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, len(kindPrefixes))
	for k := range kindPrefixes {
		kinds = append(kinds, k)
	}
	return kinds
}

// Match is a detected entity in the original text. Offsets are byte
// positions with Start < End. Immutable once produced by a detector.
type Match struct {
	Kind       Kind    `json:"kind"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Value      string  `json:"-"` // never serialize the original text
	Confidence float64 `json:"confidence"`
}

// Mapping is the durable record stored in the vault, relating a placeholder
// back to the original value. ExpiresAt is nil when the mapping never
// expires (a deliberate configuration choice).
type Mapping struct {
	Kind          Kind       `json:"kind"`
	OriginalValue string     `json:"-"` // never serialize the original value
	Placeholder   string     `json:"placeholder"`
	Confidence    float64    `json:"confidence"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the mapping's own TTL has lapsed at time now.
func (m *Mapping) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// Placeholder is a placeholder-shaped token found while scanning anonymized
// text during deanonymization. Transient; recomputed on every scan.
type Placeholder struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}
