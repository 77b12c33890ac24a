// Package logx builds the console's structured logger and masks secrets
// before they reach a log record.
package logx
