package recorder

import "CycleSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFrame(_ *model.Frame) error   { return nil }
func (n *NoopRecorder) RecordReload(_ *ReloadEvent) error { return nil }
func (n *NoopRecorder) Close() error                      { return nil }
