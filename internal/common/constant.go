package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// authenticated requests.
const AuthHeaderName = "Authorization"

// AuthHeaderPrefix is the scheme prefix expected in AuthHeaderName.
const AuthHeaderPrefix = "Bearer "
