// Package archive places finished artifacts into the date-sharded store under
// the archive root and keeps the SHA256SUMS integrity ledger next to it.
//
// Layout:
//
//	<root>/<YYYY>/<MM>/<YYYYMMDD>_<id>[.zip]
//	<root>/SHA256SUMS
package archive
