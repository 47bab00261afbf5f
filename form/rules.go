package form

import (
	"net/url"
	"unicode/utf8"

	"github.com/Cogwheel-Validator/reified-portal/address"
)

// rule returns the failure message for value, or "" when it passes.
type rule func(value string) string

func minLength(n int, message string) rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) < n {
			return message
		}
		return ""
	}
}

func maxLength(n int, message string) rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return message
		}
		return ""
	}
}

func alphanumeric(message string) rule {
	return func(value string) string {
		for _, r := range value {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return message
			}
		}
		return ""
	}
}

func absoluteURL(message string) rule {
	return func(value string) string {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
			return message
		}
		return ""
	}
}

func bech32Address(prefix, message string) rule {
	return func(value string) string {
		if address.Validate(value, prefix) != nil {
			return message
		}
		return ""
	}
}

// check runs rules in order and records every failure. It reports whether
// the field passed.
func check(result *Result, field, value string, rules ...rule) bool {
	passed := true
	for _, r := range rules {
		if message := r(value); message != "" {
			result.add(field, message)
			passed = false
		}
	}
	return passed
}

var (
	denomIDRules = []rule{
		minLength(4, "DenomId should be at least 4 alphanumeric character"),
		maxLength(8, "DenomId should not be more than 8 characters"),
		alphanumeric("DenomId should only contain alphanumeric characters"),
	}
	denomNameRules = []rule{
		minLength(4, "Name is required."),
		maxLength(20, "Name should not be more than 20 characters."),
	}
	symbolRules = []rule{
		minLength(3, "Symbol must be at least 3 characters."),
		maxLength(6, "Symbol cannot be more than 6 characters."),
	}
	nftNameRules = []rule{
		minLength(4, "Name is required"),
		maxLength(20, "Name should not be more than 20 character"),
	}
	uriRules = []rule{
		absoluteURL("This must be a valid url"),
	}
)

// Uniqueness messages.
const (
	msgDenomIDTaken = "DenomId already in use."
	msgNameTaken    = "Name already in use"
	msgSymbolTaken  = "Symbol already in use"
	msgRecipient    = "Recipient must be a valid address"
)
