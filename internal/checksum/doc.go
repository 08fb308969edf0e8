package checksum

// Package checksum computes streaming SHA-256 integrity digests of archived
// artifacts and the order-independent dedup key of a URL set.
