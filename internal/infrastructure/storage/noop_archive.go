package storage

import "context"

// NoopArchive is used when archiving is disabled
type NoopArchive struct{}

// Archive does nothing and returns an empty key
func (NoopArchive) Archive(context.Context, string, string) (string, error) {
	return "", nil
}
