// Package dedupe resolves duplicate survey responses submitted by multiple
// respondents from the same organization and assigns each response an
// analysis weight.
package dedupe

// IdentityKey derives the composite key grouping responses believed to
// originate from the same organization. Callers must ensure postalCode is
// present; records without one never enter deduplication.
func IdentityKey(postalCode, orgBucket int) int64 {
	return 10*int64(postalCode) + int64(orgBucket)
}

// RankKey combines a role rank with an identity key into the lookup key used
// by the force-keep and force-drop override tables.
func RankKey(roleRank int, identityKey int64) int64 {
	return 1_000_000*int64(roleRank) + identityKey
}
