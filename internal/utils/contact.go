package utils

import (
	"regexp"
	"strings"
)

var phoneFormatting = regexp.MustCompile(`[^\d+]`)

// NormalizeEmail lowercases and trims an address. Local parts are kept as
// typed since riders are contacted at exactly the address they gave.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips spaces, dashes and brackets, keeping a leading +.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	plus := strings.HasPrefix(phone, "+")
	digits := strings.ReplaceAll(phoneFormatting.ReplaceAllString(phone, ""), "+", "")
	if plus {
		return "+" + digits
	}
	return digits
}

func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	localPart := parts[0]
	if len(localPart) <= 2 {
		return email
	}

	return string(localPart[0]) + strings.Repeat("*", len(localPart)-2) + string(localPart[len(localPart)-1]) + "@" + parts[1]
}

// MaskPhone shows the last four digits only.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
