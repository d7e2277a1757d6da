package store

import "strings"

// Collection prefixes end in "_" so a subscription on the prefix matches every member key.
const (
	PolicyPrefix         = "policy_"
	PolicyTagsPrefix     = "policyTags_"
	ReportPrefix         = "report_"
	ReportMetadataPrefix = "reportMetadata_"
	ReportActionsPrefix  = "reportActions_"
	TransactionPrefix    = "transactions_"
)

const (
	KeyIsLoadingApp      = "isLoadingApp"
	KeyNetwork           = "network"
	KeySession           = "session"
	KeyDevicePermissions = "devicePermissions"
	KeySelectionMode     = "selectionMode"
)

func PolicyKey(policyID string) string         { return PolicyPrefix + policyID }
func PolicyTagsKey(policyID string) string     { return PolicyTagsPrefix + policyID }
func ReportKey(reportID string) string         { return ReportPrefix + reportID }
func ReportMetadataKey(reportID string) string { return ReportMetadataPrefix + reportID }
func ReportActionsKey(reportID string) string  { return ReportActionsPrefix + reportID }
func TransactionKey(transactionID string) string {
	return TransactionPrefix + transactionID
}

// IsCollectionKey reports whether key names a whole collection rather than one member.
func IsCollectionKey(key string) bool {
	return strings.HasSuffix(key, "_")
}

// matchesKey reports whether a change to changed should reach an observer registered on pattern.
func matchesKey(pattern, changed string) bool {
	if pattern == changed {
		return true
	}
	return IsCollectionKey(pattern) && strings.HasPrefix(changed, pattern)
}

// MemberID strips a collection prefix from key.
func MemberID(prefix, key string) string {
	return strings.TrimPrefix(key, prefix)
}
