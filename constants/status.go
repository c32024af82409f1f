package constants

// JobStatus is the canonical status for rows in jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusActive  JobStatus = "active"
	JobStatusApplied JobStatus = "applied"
	JobStatusClosed  JobStatus = "closed"
)

// ConnectionStatus is the canonical status for rows in connections.
type ConnectionStatus string

const (
	ConnectionStatusNew       ConnectionStatus = "new"
	ConnectionStatusProcessed ConnectionStatus = "processed" // referral follow-up done
)

// ReferralStatus is the canonical status for rows in referral_opportunities.
type ReferralStatus string

const (
	ReferralStatusNew       ReferralStatus = "new"
	ReferralStatusContacted ReferralStatus = "contacted"
	ReferralStatusDone      ReferralStatus = "done"
	ReferralStatusIgnored   ReferralStatus = "ignored"
)

var (
	jobStatuses        = []string{string(JobStatusActive), string(JobStatusApplied), string(JobStatusClosed)}
	connectionStatuses = []string{string(ConnectionStatusNew), string(ConnectionStatusProcessed)}
	referralStatuses   = []string{
		string(ReferralStatusNew),
		string(ReferralStatusContacted),
		string(ReferralStatusDone),
		string(ReferralStatusIgnored),
	}

	validJobStatus        = EnumValidator(jobStatuses...)
	validConnectionStatus = EnumValidator(connectionStatuses...)
	validReferralStatus   = EnumValidator(referralStatuses...)
)

// JobStatuses returns the allowed job statuses in display order.
func JobStatuses() []string { return append([]string(nil), jobStatuses...) }

// ConnectionStatuses returns the allowed connection statuses.
func ConnectionStatuses() []string { return append([]string(nil), connectionStatuses...) }

// ReferralStatuses returns the allowed referral statuses.
func ReferralStatuses() []string { return append([]string(nil), referralStatuses...) }

func (s JobStatus) Valid() bool        { return validJobStatus(string(s)) == nil }
func (s ConnectionStatus) Valid() bool { return validConnectionStatus(string(s)) == nil }
func (s ReferralStatus) Valid() bool   { return validReferralStatus(string(s)) == nil }
