package domain

// SelectionChangedEvent is emitted after every toggle and after every fetch,
// whether or not the selection actually changed
type SelectionChangedEvent struct {
	Count int
}

// InteractionChangedEvent brackets work during which the UI must not accept input
type InteractionChangedEvent struct {
	Disabled bool
}

// SelectionCompletedEvent is emitted when the user finishes selecting
type SelectionCompletedEvent struct{}

// FolderSelectedEvent is emitted when the user opens a folder
type FolderSelectedEvent struct {
	Folder Folder
}

// ImagesFilteredEvent carries the images of one bucket, or of every bucket
// when BucketID is nil
type ImagesFilteredEvent struct {
	BucketID *int64
	Images   []Image
}

// For reports whether the event was filtered for bucketID
func (e ImagesFilteredEvent) For(bucketID *int64) bool {
	if e.BucketID == nil || bucketID == nil {
		return e.BucketID == nil && bucketID == nil
	}
	return *e.BucketID == *bucketID
}

// CompressionWarningEvent is emitted when an image is kept uncompressed
type CompressionWarningEvent struct {
	Image  Image
	Reason error
}
