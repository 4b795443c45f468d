package audit

import "context"

// Worker consumes events from a channel and forwards them to a publisher so
// decision latency never waits on the sink.
type Worker struct {
	publisher Publisher
	inbox     <-chan Event
}

func NewWorker(publisher Publisher, inbox <-chan Event) *Worker {
	return &Worker{publisher: publisher, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}
