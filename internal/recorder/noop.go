package recorder

import "context"

// NoopRecorder is a no-op implementation used when no recorder path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFetch(_ context.Context, _ *FetchEvent) error { return nil }
func (n *NoopRecorder) RecentFetches(_ context.Context, _ string, _ int) ([]FetchEvent, error) {
	return []FetchEvent{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
