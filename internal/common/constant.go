package common

// InternalSecretHeaderName is the gRPC metadata key carrying the shared secret
// of the internal session API.
const InternalSecretHeaderName = "internal-secret"

// AuthorizationHeaderName is the HTTP header carrying "Bearer <access token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "
