// Package cli implements the reserve-console command tree. Each command
// builds a Console from the config file and flags, runs one operation
// against the encrypted session file, and closes the Console.
package cli
