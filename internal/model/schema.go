package model

// JSONSchema returns a JSON Schema object requiring exactly the given fields,
// each a string or null. It is sent to providers as a structured output
// constraint and reused for local validation of their replies.
func JSONSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{
			"type":        []string{"string", "null"},
			"description": fieldDescriptions[f],
		}
	}
	required := make([]string, len(fields))
	copy(required, fields)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// FieldDescription returns the human description of a field used in prompts and schemas.
func FieldDescription(field string) string {
	return fieldDescriptions[field]
}

var fieldDescriptions = map[string]string{
	FieldName:           "Full name of the person",
	FieldStreet:         "Street address including number and street name",
	FieldCity:           "City name",
	FieldState:          "State, province, or region",
	FieldCountry:        "Country name",
	FieldZipCode:        "ZIP code or postal code",
	FieldPhoneNumber:    "Phone number",
	FieldEmail:          "Email address",
	FieldDateOfBirth:    "Date of birth",
	FieldIDNumber:       "ID card or license number",
	FieldExpirationDate: "ID expiration date",
	FieldGender:         "Gender as listed on the ID",
}
