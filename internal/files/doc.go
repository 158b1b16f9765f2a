// Package files discovers portfolio spreadsheets in the data directory so
// the server and the report command can pick up the most recent one.
package files
