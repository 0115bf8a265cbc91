// Package common contains shared constants, sentinel errors and small
// helpers used across the intelligence server components.
package common

// TokenIssuer is the fixed "iss" claim stamped on every access token.
const TokenIssuer = "intelligence"

// AuthorizationHeaderName is the HTTP header (and, lowercased, the gRPC
// metadata key) carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme accepted by the server.
const BearerScheme = "Bearer"

// UserImagesDir is the storage prefix holding one profile image per user.
const UserImagesDir = "userimages"

// UserFilesDir is the storage prefix holding per-user file trees.
const UserFilesDir = "users"
