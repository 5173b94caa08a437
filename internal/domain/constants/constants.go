// Package constants holds shared application-level constants.
package constants

const (
	// EnvDevelop marks the local development environment.
	EnvDevelop = "develop"

	// PubSubProviderLocal selects the local HTTP audit publisher.
	PubSubProviderLocal = "local"

	// PubSubProviderGoogle selects the Google Pub/Sub audit publisher.
	PubSubProviderGoogle = "google"
)
