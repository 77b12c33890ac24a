// Package jwt wraps golang-jwt for the two token concerns of the console:
// reading the expiry of backend-issued session tokens without verifying
// them, and signing/verifying the values persisted in session cookies.
package jwt
