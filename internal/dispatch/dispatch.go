// Package dispatch builds fire-and-forget compose links for candidate
// communication. The API hands these URIs to the browser client; no delivery
// state, retries or receipts exist beyond that navigation.
package dispatch

import (
	"fmt"
	"net/url"
	"strings"
)

// Iranian local numbers start with 0; WhatsApp wants the country code form.
const countryCode = "98"

// MailtoLink returns a mailto: compose URI for the given address.
func MailtoLink(addr, subject, body string) (string, error) {
	if strings.TrimSpace(addr) == "" {
		return "", fmt.Errorf("email address is empty")
	}
	params := url.Values{}
	if subject != "" {
		params.Set("subject", subject)
	}
	if body != "" {
		params.Set("body", body)
	}
	link := "mailto:" + addr
	if encoded := params.Encode(); encoded != "" {
		link += "?" + strings.ReplaceAll(encoded, "+", "%20")
	}
	return link, nil
}

// WhatsAppLink returns a wa.me deep link for the given phone number.
func WhatsAppLink(phone, body string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	link := "https://wa.me/" + normalized
	if body != "" {
		link += "?text=" + url.QueryEscape(body)
	}
	return link, nil
}

// NormalizePhone strips every non-digit character and rewrites the local 0
// prefix to the country code. An empty or digit-less input is an error.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", fmt.Errorf("phone number %q has no digits", raw)
	}
	if strings.HasPrefix(digits, "0") {
		digits = countryCode + digits[1:]
	}
	return digits, nil
}
