// Package mfa holds the authentication factor registry and the TOTP
// verification helper.
package mfa

// Built-in factor ids. Anything outside this list is a custom factor owned
// by the developer.
const (
	FactorEmailPassword = "emailpassword"
	FactorThirdParty    = "thirdparty"
	FactorOTPEmail      = "otp-email"
	FactorOTPPhone      = "otp-phone"
	FactorLinkEmail     = "link-email"
	FactorLinkPhone     = "link-phone"
	FactorTOTP          = "totp"
	FactorWebauthn      = "webauthn"
)

// builtinFirstFactors are the built-in factors usable as the initial
// authentication step. totp is second-factor only.
var builtinFirstFactors = []string{
	FactorEmailPassword,
	FactorThirdParty,
	FactorOTPEmail,
	FactorOTPPhone,
	FactorLinkEmail,
	FactorLinkPhone,
	FactorWebauthn,
}

// IsBuiltinFactor reports whether the factor id belongs to the built-in
// registry (first or second factor).
func IsBuiltinFactor(factorID string) bool {
	if factorID == FactorTOTP {
		return true
	}
	return IsBuiltinFirstFactor(factorID)
}

// IsBuiltinFirstFactor reports whether the factor id is a built-in factor
// usable as a first factor.
func IsBuiltinFirstFactor(factorID string) bool {
	for _, id := range builtinFirstFactors {
		if id == factorID {
			return true
		}
	}
	return false
}

// PasswordlessFactors lists the factor ids backed by the passwordless
// recipe (OTP and magic-link, each over email and phone).
func PasswordlessFactors() []string {
	return []string{FactorOTPEmail, FactorOTPPhone, FactorLinkEmail, FactorLinkPhone}
}

// IsPasswordlessFactor reports whether the factor id is one of the
// passwordless channels.
func IsPasswordlessFactor(factorID string) bool {
	for _, id := range PasswordlessFactors() {
		if id == factorID {
			return true
		}
	}
	return false
}
