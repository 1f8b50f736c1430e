package credentials

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// Account policy, checked before any hashing work is done.
const (
	MinPasswordLength = 6
	MinUsernameLength = 3
)

// ValidateSignup checks a registration request. Errors wrap
// common.ErrorInvalidInput.
func ValidateSignup(username, email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidInput, MinPasswordLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(username)) < MinUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrorInvalidInput, MinUsernameLength)
	}
	return nil
}

// ValidateLogin checks a login request.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: password required", common.ErrorInvalidInput)
	}
	return nil
}

// ValidateEmail accepts addresses with a local part, an "@" and a dotted domain.
func ValidateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return fmt.Errorf("%w: invalid email format", common.ErrorInvalidInput)
	}
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return fmt.Errorf("%w: invalid email format", common.ErrorInvalidInput)
	}
	return nil
}
