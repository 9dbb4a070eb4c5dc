package pipeline

import (
	"regexp"
	"strings"

	"riskgate/internal/validation/events"
)

// formatResult is the explicit outcome of the cheap synchronous validation
// that runs before scoring. Invalid results carry the user-facing error code.
type formatResult struct {
	OK      bool
	Code    string
	Message string
}

func valid() formatResult {
	return formatResult{OK: true}
}

func invalid(code, message string) formatResult {
	return formatResult{Code: code, Message: message}
}

var (
	identityFormat = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)
	emailFormat    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneFormat    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

const minNameLength = 2

// validateFormat is the fast-fail path: any failure rejects the request
// without ever invoking the scoring engine.
func validateFormat(ev events.ValidationRequest) formatResult {
	if strings.TrimSpace(ev.IdentityNumber) == "" {
		return invalid(events.ErrCodeIdentityMissing, "identity number is required")
	}
	if !identityFormat.MatchString(strings.TrimSpace(ev.IdentityNumber)) {
		return invalid(events.ErrCodeIdentityFormat, "identity number format is invalid")
	}
	if !emailFormat.MatchString(strings.TrimSpace(ev.Email)) {
		return invalid(events.ErrCodeEmailFormat, "email address is invalid")
	}
	if !phoneFormat.MatchString(strings.ReplaceAll(strings.TrimSpace(ev.Phone), " ", "")) {
		return invalid(events.ErrCodePhoneFormat, "phone number is invalid")
	}
	if len(strings.TrimSpace(ev.Name)) < minNameLength || len(strings.TrimSpace(ev.Surname)) < minNameLength {
		return invalid(events.ErrCodeNameTooShort, "name and surname must each be at least 2 characters")
	}
	return valid()
}
