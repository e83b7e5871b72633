package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace, strips HTML tags and drops control characters.
func SanitizeString(input string) string {
	return removeControlChars(stripHTML(strings.TrimSpace(input)))
}

// SanitizeOptional applies SanitizeString to a present value.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	sanitized := SanitizeString(*input)
	return &sanitized
}

// SanitizeEmail lowercases and trims an email address.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = stripHTML(email)
	return removeControlChars(email)
}

// SanitizePhone keeps digits and the usual phone punctuation.
func SanitizePhone(phone string) string {
	phone = stripHTML(strings.TrimSpace(phone))

	var result strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

func stripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || r == ' ' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
