// Package api is a thin JSON client for the gophauth HTTP API. It keeps the
// access token in memory and the refresh token in a cookie jar, the same way
// a browser would.
package api
