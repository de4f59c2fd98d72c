package market

import (
	"strings"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/jrsteele09/skins-market-client/session"
)

// MaxRentalDays bounds both a rental listing and a rental.
const MaxRentalDays = 365

// These checks mirror the backend's own and run before any network call, so a request
// that can only be rejected never leaves the process.

func validateID(name string, id int64) error {
	if id <= 0 {
		return apperrors.Invalidf("%s must be > 0", name)
	}
	return nil
}

func validateAmount(name string, amount int64) error {
	if amount <= 0 {
		return apperrors.Invalidf("%s must be > 0", name)
	}
	return nil
}

func validateRequired(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.Invalidf("%s is required", name)
	}
	return nil
}

func validateDays(name string, days int) error {
	if days < 1 || days > MaxRentalDays {
		return apperrors.Invalidf("%s must be between 1 and %d", name, MaxRentalDays)
	}
	return nil
}

func validateRole(role session.Role) error {
	if !role.Valid() {
		return apperrors.Invalidf("role must be %s or %s", session.RoleUser, session.RoleAdmin)
	}
	return nil
}

func validateAttachment(a Attachment) error {
	if err := validateRequired("fileName", a.FileName); err != nil {
		return err
	}
	return validateRequired("fileUrl", a.FileURL)
}
