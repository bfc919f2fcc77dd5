// Package database stores audit history in SQLite (modernc.org/sqlite, no
// cgo).
//
// History is opt-in: "seoprobe audit --save" writes each report to
// seoprobe.db in the XDG data directory, and "seoprobe history" lists past
// audits of a URL and diffs the conflicts of the latest two.
package database
