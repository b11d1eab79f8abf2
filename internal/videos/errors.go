package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrInvalidURL indicates no YouTube video id could be extracted.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrVideoNotFound indicates the provider has no video for the id.
	ErrVideoNotFound = errors.New("youtube video not found")
	// ErrStorageUnavailable indicates no object store is configured for thumbnails.
	ErrStorageUnavailable = errors.New("thumbnail storage unavailable")
)
