package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// OTPLength is the number of digits in one-time codes sent to users and
// keyholders.
const OTPLength = 6
