package model

// Field names as they appear on the wire and in provider schemas.
const (
	FieldName           = "name"
	FieldStreet         = "street"
	FieldCity           = "city"
	FieldState          = "state"
	FieldCountry        = "country"
	FieldZipCode        = "zip_code"
	FieldPhoneNumber    = "phone_number"
	FieldEmail          = "email"
	FieldDateOfBirth    = "date_of_birth"
	FieldIDNumber       = "id_number"
	FieldExpirationDate = "expiration_date"
	FieldGender         = "gender"
)

var (
	// ContactFields are the name, address and contact details.
	ContactFields = []string{
		FieldName, FieldStreet, FieldCity, FieldState, FieldCountry,
		FieldZipCode, FieldPhoneNumber, FieldEmail,
	}

	// TextFields is the field set requested from free-form text input.
	TextFields = append(append([]string{}, ContactFields...), FieldDateOfBirth)

	// DocumentFields is the field set requested from identity-document images.
	DocumentFields = append(append([]string{}, TextFields...), FieldIDNumber, FieldExpirationDate, FieldGender)
)

// PersonalInfo is the extracted record. A nil field means "not found".
// Every key is always present in the JSON encoding.
type PersonalInfo struct {
	Name           *string `json:"name"`
	Street         *string `json:"street"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	Country        *string `json:"country"`
	ZipCode        *string `json:"zip_code"`
	PhoneNumber    *string `json:"phone_number"`
	Email          *string `json:"email"`
	DateOfBirth    *string `json:"date_of_birth"`
	IDNumber       *string `json:"id_number"`
	ExpirationDate *string `json:"expiration_date"`
	Gender         *string `json:"gender"`
}

func (p *PersonalInfo) fieldPtr(field string) **string {
	switch field {
	case FieldName:
		return &p.Name
	case FieldStreet:
		return &p.Street
	case FieldCity:
		return &p.City
	case FieldState:
		return &p.State
	case FieldCountry:
		return &p.Country
	case FieldZipCode:
		return &p.ZipCode
	case FieldPhoneNumber:
		return &p.PhoneNumber
	case FieldEmail:
		return &p.Email
	case FieldDateOfBirth:
		return &p.DateOfBirth
	case FieldIDNumber:
		return &p.IDNumber
	case FieldExpirationDate:
		return &p.ExpirationDate
	case FieldGender:
		return &p.Gender
	default:
		return nil
	}
}

// Get returns the value of a field, or nil when unset or unknown.
func (p PersonalInfo) Get(field string) *string {
	if ptr := p.fieldPtr(field); ptr != nil {
		return *ptr
	}
	return nil
}

// Set assigns a field by wire name. It reports false for unknown names.
func (p *PersonalInfo) Set(field string, value *string) bool {
	ptr := p.fieldPtr(field)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

// Filled counts how many of the given fields hold a non-empty value.
func (p PersonalInfo) Filled(fields []string) int {
	n := 0
	for _, f := range fields {
		if v := p.Get(f); v != nil && *v != "" {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no field at all is populated.
func (p PersonalInfo) IsEmpty() bool {
	return p.Filled(DocumentFields) == 0
}

// IsKnownField reports whether name is one of the PersonalInfo wire names.
func IsKnownField(name string) bool {
	var p PersonalInfo
	return p.fieldPtr(name) != nil
}
