package metrics

import "time"

// Resource kinds counted by AddResources.
const (
	ResourceDocument   = "document"
	ResourceImage      = "image"
	ResourceStylesheet = "stylesheet"
)

// Recorder defines observability hooks for extraction and the library.
type Recorder interface {
	// ObserveExtraction records one extraction call; outcome is "success"
	// or the label of the error kind that ended it.
	ObserveExtraction(d time.Duration, outcome string)
	AddResources(kind string, n int)
	IncTocKind(kind string)
	IncUpload(success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveExtraction(time.Duration, string) {}
func (NoopRecorder) AddResources(string, int)                {}
func (NoopRecorder) IncTocKind(string)                       {}
func (NoopRecorder) IncUpload(bool)                          {}
