package templates

import (
	"strings"
	"time"
)

// Branding carries the static values every mail shows.
type Branding struct {
	AppName        string
	BlogTitle      string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
	PrivacyURL     string
	UnsubscribeURL string
}

// Option adjusts the data of one mail.
type Option func(*EmailData)

// WithExpiresAt shows when the link in the mail stops working.
func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

// ActionURL appends token as the last path segment of base.
func ActionURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/" + token
}

func NewBaseEmailData(b Branding, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		BlogTitle:      b.BlogTitle,
		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,

		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
		PrivacyURL:     b.PrivacyURL,
		UnsubscribeURL: b.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(b Branding, name, email, verifyURL string, opts ...Option) map[string]any {
	d := NewBaseEmailData(b, VerifyEmail, name, email, opts...)
	d.VerifyURL = verifyURL
	return ToMap(d)
}

func NewForgotPasswordData(b Branding, name, email, resetURL string, opts ...Option) map[string]any {
	d := NewBaseEmailData(b, ForgotPassword, name, email, opts...)
	d.ResetURL = resetURL
	return ToMap(d)
}
