package domain

import "fmt"

// Image represents one indexed image file
type Image struct {
	ID         int64
	URI        string // storage reference, e.g. file:///photos/a.jpg
	Name       string
	BucketID   int64 // owning folder
	BucketName string
}

// WithURI returns a copy of the image pointing at a different storage reference
func (i Image) WithURI(uri string) Image {
	i.URI = uri
	return i
}

// Folder groups the images that share a bucket id
type Folder struct {
	BucketID int64
	Name     string
	CoverURI string
	Images   []Image
}

// Predicate is a selection clause with positional bind arguments, consumed by
// the media index when it cannot scope results itself
type Predicate struct {
	Clause string
	Args   []any
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %v", p.Clause, p.Args)
}

// FailurePolicy controls what happens when the media index fails a fetch
type FailurePolicy string

const (
	// FailureReport publishes the error as a Failure result
	FailureReport FailurePolicy = "report"
	// FailureSwallow logs the error and publishes an empty Success
	FailureSwallow FailurePolicy = "swallow"
)

// Configuration controls selection limits, filtering and compression.
// It is replaced as a whole; nothing validates it at the coordinator.
type Configuration struct {
	MaxSelection    int           `toml:"max_selection"`    // 0 means unlimited
	MimeTypes       []string      `toml:"mime_types"`       // empty means any image type
	MinSize         int64         `toml:"min_size"`         // bytes, 0 disables
	MaxSize         int64         `toml:"max_size"`         // bytes, 0 disables
	Quality         int           `toml:"quality"`          // JPEG quality 1-100, 0 disables compression
	MaxDimension    int           `toml:"max_dimension"`    // longest edge after compression, 0 keeps size
	CompressWorkers int           `toml:"compress_workers"` // 1 compresses sequentially
	FetchFailure    FailurePolicy `toml:"fetch_failure"`
}

// DefaultConfiguration returns the picker defaults
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxSelection:    9,
		Quality:         80,
		MaxDimension:    2048,
		CompressWorkers: 1,
		FetchFailure:    FailureReport,
	}
}

// ResultState tags the variant held by a Result
type ResultState int

const (
	ResultLoading ResultState = iota
	ResultSuccess
	ResultFailure
)

func (s ResultState) String() string {
	switch s {
	case ResultLoading:
		return "loading"
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Result is the outcome of an asynchronous fetch
type Result[T any] struct {
	State ResultState
	Data  T     // set when State is ResultSuccess
	Err   error // set when State is ResultFailure
}

// Loading returns a Result in the loading state
func Loading[T any]() Result[T] {
	return Result[T]{State: ResultLoading}
}

// Success wraps a fetched value
func Success[T any](data T) Result[T] {
	return Result[T]{State: ResultSuccess, Data: data}
}

// Failure wraps the reason a fetch failed
func Failure[T any](err error) Result[T] {
	return Result[T]{State: ResultFailure, Err: err}
}
