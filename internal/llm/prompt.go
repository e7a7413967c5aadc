package llm

import (
	"fmt"
	"strings"

	"personal-info-parser/internal/model"
)

const schemaName = "personal_info"

const visionPrompt = "This image is a photo of an identity document, ID card, driver's license or business card. " +
	"Transcribe every visible personal detail with its label, one 'Label: value' per line: " +
	"full name, street address, city, state or province, country, ZIP or postal code, phone number, email, " +
	"date of birth, document or license number, expiration date and gender. " +
	"Only write what is visible on the document. Skip labels that are not present."

// SystemPrompt builds the instruction naming the closed set of fields to extract.
func SystemPrompt(fields []string) string {
	var b strings.Builder
	b.WriteString("You are an expert at extracting personal information from text. ")
	b.WriteString("Extract all available personal details into a JSON object with exactly these keys:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f, model.FieldDescription(f))
	}
	b.WriteString("Use null for any field that is not present in the text. ")
	b.WriteString("Copy values as written; never guess or invent values. ")
	b.WriteString("Return ONLY the JSON object.")
	return b.String()
}

// UserPrompt wraps the caller input.
func UserPrompt(text string) string {
	return "Extract personal information from this text: " + text
}

// VisionPrompt is the instruction sent alongside an image.
func VisionPrompt() string {
	return visionPrompt
}
