package service

import (
	"unicode"

	"github.com/fastkart-next/internal/config"
)

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len(password) < policy.MinLength {
		return ErrWeakPassword
	}
	if policy.RequireNumber {
		hasNumber := false
		for _, r := range password {
			if unicode.IsDigit(r) {
				hasNumber = true
				break
			}
		}
		if !hasNumber {
			return ErrWeakPassword
		}
	}
	return nil
}
