package messaging

// Default channel names of the lending event bus. Deployments can rename them
// through configuration; these are the values used when nothing is configured.
const (
	ChannelBorrowerCreated = "borrower-created"
	ChannelLoanApplication = "loan-application"
	ChannelDocumentsUpload = "documents-upload"
	ChannelLoanStatus      = "loan-status"
	ChannelDocumentsStatus = "documents-status"
)

// DefaultChannels lists every channel of the bus.
func DefaultChannels() []string {
	return []string{
		ChannelBorrowerCreated,
		ChannelLoanApplication,
		ChannelDocumentsUpload,
		ChannelLoanStatus,
		ChannelDocumentsStatus,
	}
}

// ConsumerGroup returns the durable group name a service uses for a channel.
// Example: scoring-loan-application
func ConsumerGroup(service, channel string) string {
	return service + "-" + channel
}
