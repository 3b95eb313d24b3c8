package common

// DateFormat is the canonical calendar-day key used by both stores.
const DateFormat = "2006-01-02"

// AuthorizationHeader carries the bearer access token on API requests.
const AuthorizationHeader = "Authorization"
