package common

// RefreshTokenCookieName is the cookie that carries the refresh token
// between the browser client and the /auth endpoints.
const RefreshTokenCookieName = "refresh_token"

// TokenTypeBearer is reported to clients alongside every access token.
const TokenTypeBearer = "bearer"

// AuthorizationHeaderName carries "Bearer <access token>" on protected requests.
const AuthorizationHeaderName = "Authorization"
