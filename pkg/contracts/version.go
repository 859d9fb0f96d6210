package contracts

const (
	// APIVersion is the version of the HTTP API and session protocol
	APIVersion = "v1"

	// DataFormatVersion is the version of the normalized export layout
	DataFormatVersion = "v1"
)
