// Package auth provides the identity middleware for the web application.
//
// The middleware reads the session cookie, loads the session's user from the
// database and stores the resulting access.Context on the request. Requests
// without a valid session are answered with 401, except for public paths such
// as the login page, check alive and metrics.
//
// Usage:
//
//	app.Use(authmiddleware.New(db, "/login", "/logout", "/checkalive", "/metrics"))
package auth
