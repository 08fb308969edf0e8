//go:build !unix

package archive

func isEXDEV(error) bool { return false }
