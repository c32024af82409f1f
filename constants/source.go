package constants

// SourceLinkedInEmail marks connections created from LinkedIn notification emails.
const SourceLinkedInEmail = "linkedin_email"

// UnknownName is stored when no name could be parsed from a message.
const UnknownName = "Unknown"

// ServiceName is reported by health endpoints.
const ServiceName = "refcue"
