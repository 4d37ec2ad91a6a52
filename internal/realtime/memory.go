package realtime

import "go.uber.org/zap"

// MemoryFeed is an in-process change feed. Events are delivered by Publish.
type MemoryFeed struct {
	*dispatcher
}

func NewMemoryFeed(log *zap.Logger) *MemoryFeed {
	return &MemoryFeed{dispatcher: newDispatcher(log)}
}

func (f *MemoryFeed) Publish(event Event) {
	f.dispatch(event)
}

func (f *MemoryFeed) Close() {
	f.closeAll()
}
