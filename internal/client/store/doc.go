// Package store keeps the client session in a local SQLite file.
//
// The file holds a single key/value table ("metadata") created by goose
// migrations. The session is stored under the session.* keys:
//
//	session.user_id
//	session.username
//	session.access_token
//	session.refresh_token
//
// A missing user id means nobody is logged in.
package store
