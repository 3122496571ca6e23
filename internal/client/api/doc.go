// Package api is the HTTP client of the account and category services.
//
// Every authenticated call carries the stored access token. When a call is
// answered with 401 the client refreshes the pair once through
// /v1/auth/refresh, persists the rotated pair and repeats the call.
package api
