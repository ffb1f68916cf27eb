// Package appconfig holds the single row of admin-editable runtime
// settings: the welcome message, opt-out text, and related copy that
// does not warrant a code deploy to change.
package appconfig

import "time"

// singletonID is the fixed row id app_config always uses — there is
// exactly one configuration row per deployment.
const singletonID = "00000000-0000-0000-0000-000000000001"

// AppConfig is the admin-editable runtime settings singleton.
type AppConfig struct {
	WelcomeMessage  string
	OptOutMessage   string
	HelpMessage     string
	UpdatedAt       time.Time
}

// Defaults returns the configuration seeded when no settings row exists
// yet, before any admin edit has been made.
func Defaults(welcomeMessage string) AppConfig {
	return AppConfig{
		WelcomeMessage: welcomeMessage,
		OptOutMessage:  "You've been unsubscribed and won't receive further messages. Reply JOIN to resubscribe.",
		HelpMessage:    "Reply STOP to unsubscribe. Msg & data rates may apply.",
	}
}
