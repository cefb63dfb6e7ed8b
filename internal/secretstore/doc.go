// Package secretstore persists the two small pieces of state the core
// keeps across runs: the last-used username, in a plain config.json in
// the OS app-data directory, and each username's session cookie pair, in
// the OS-provided secret store (Keychain on macOS, Secret Service on
// Linux, Credential Manager on Windows).
//
// Neither file nor keychain entry holds a password — only the cookies
// a successful login already produced.
package secretstore
