package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// AccessTokenHTTPHeader is the HTTP header accepted alongside
// "Authorization: Bearer".
const AccessTokenHTTPHeader = "X-Access-Token"

// ResetTokenLength is the length of a password-reset token.
const ResetTokenLength = 6

// ResetTokenAlphabet is the character set reset tokens are drawn from.
const ResetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
