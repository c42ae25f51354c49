package mfa

import (
	"github.com/pquerna/otp/totp"
)

// TOTPDevice is an enrolled authenticator app.
type TOTPDevice struct {
	Secret     string `json:"secret"`
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// NewTOTPDevice generates a fresh TOTP secret for an account.
func NewTOTPDevice(issuer, account string) (TOTPDevice, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return TOTPDevice{}, err
	}
	return TOTPDevice{
		Secret:     key.Secret(),
		Issuer:     issuer,
		Account:    account,
		OTPAuthURL: key.URL(),
	}, nil
}

// VerifyTOTP checks a code against the device secret.
func VerifyTOTP(device TOTPDevice, code string) bool {
	return totp.Validate(code, device.Secret)
}
