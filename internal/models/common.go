package models

//nolint:gosec // context key names, not credentials
const (
	MwUserIDKey = "userID"
	MwClaimsKey = "claims"
	MwTokenKey  = "accessToken"
)
