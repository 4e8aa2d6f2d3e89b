package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/scoreboard/internal/adapters/mq/queue"
	worker "github.com/okian/scoreboard/internal/adapters/mq/worker"
	model "github.com/okian/scoreboard/internal/domain/model"
	logging "github.com/okian/scoreboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	eventChan chan queue.Event
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 100)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Event { return mq.eventChan }

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.eventChan) })
	return nil
}

func (mq *mockQueue) add(e queue.Event) { mq.eventChan <- e } //nolint:gocritic // hugeParam: test helper

type mockWriter struct {
	mu      sync.Mutex
	stored  map[string]model.Evaluation
	failFor map[string]error
}

func newMockWriter() *mockWriter {
	return &mockWriter{stored: map[string]model.Evaluation{}, failFor: map[string]error{}}
}

func (m *mockWriter) UpsertEvaluation(_ context.Context, e model.Evaluation) error { //nolint:gocritic // hugeParam: matches Writer
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[e.ID]; ok {
		return err
	}
	m.stored[e.ID] = e
	return nil
}

func (m *mockWriter) setError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[id] = err
}

func (m *mockWriter) get(id string) (model.Evaluation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.stored[id]
	return e, ok
}

func (m *mockWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

type mockInvalidator struct {
	calls atomic.Int32
	err   error
}

func (m *mockInvalidator) Invalidate(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func evaluation(id string) model.Evaluation {
	return model.Evaluation{ID: id, Evaluator: "J1", Company: "Acme", Organization: "Spring", Scores: model.Scores{"team": 8}}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		w := newMockWriter()
		inv := &mockInvalidator{}

		convey.Convey("When running a worker", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			wk := worker.NewInMemoryWorker(q, w,
				worker.WithName("test-worker"),
				worker.WithLogger(logging.Get()),
				worker.WithInvalidator(inv),
			)
			go wk.Run(ctx)

			convey.Convey("And an evaluation arrives", func() {
				q.add(evaluation("e1"))

				convey.Convey("Then it should be stored and the cache invalidated", func() {
					convey.So(eventually(func() bool { _, ok := w.get("e1"); return ok }), convey.ShouldBeTrue)
					convey.So(eventually(func() bool { return inv.calls.Load() == 1 }), convey.ShouldBeTrue)
					stored, _ := w.get("e1")
					convey.So(stored.Scores["team"], convey.ShouldEqual, 8)
				})
			})

			convey.Convey("And the store rejects an evaluation", func() {
				w.setError("bad", errors.New("disk full"))
				q.add(evaluation("bad"))
				q.add(evaluation("good"))

				convey.Convey("Then later evaluations should still be stored", func() {
					convey.So(eventually(func() bool { _, ok := w.get("good"); return ok }), convey.ShouldBeTrue)
					_, ok := w.get("bad")
					convey.So(ok, convey.ShouldBeFalse)
					convey.So(inv.calls.Load(), convey.ShouldEqual, 1)
				})
			})

			convey.Convey("And invalidation fails", func() {
				inv.err = errors.New("redis down")
				q.add(evaluation("e2"))

				convey.Convey("Then the evaluation should still be stored", func() {
					convey.So(eventually(func() bool { _, ok := w.get("e2"); return ok }), convey.ShouldBeTrue)
				})
			})

			convey.Convey("And shutting down", func() {
				err := wk.Shutdown(context.Background())

				convey.Convey("Then it should stop", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(wk.Shutdown(context.Background()), convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			wk := worker.NewInMemoryWorker(q, w)
			go wk.Run(ctx)
			cancel()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-wk.Done():
				case <-time.After(time.Second):
					t.Error("worker did not stop")
				}
			})
		})

		convey.Convey("When the queue channel is closed", func() {
			wk := worker.NewInMemoryWorker(q, w)
			go wk.Run(context.Background())
			_ = q.Close()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-wk.Done():
				case <-time.After(time.Second):
					t.Error("worker did not stop")
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		q := newMockQueue()
		w := newMockWriter()
		inv := &mockInvalidator{}

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, q, w)
			convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When processing evaluations with four workers", func() {
			p := worker.NewPool(4, q, w, worker.WithInvalidator(inv))
			p.Start(context.Background())

			for i := 0; i < 20; i++ {
				q.add(evaluation(fmt.Sprintf("e-%d", i)))
			}

			convey.Convey("Then shutdown should drain every pending evaluation", func() {
				err := p.Shutdown(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.count(), convey.ShouldEqual, 20)
				convey.So(inv.calls.Load(), convey.ShouldEqual, 20)
			})

			convey.Convey("Then a second shutdown should report the pool stopped", func() {
				convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(errors.Is(p.Shutdown(context.Background()), worker.ErrStopped), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When stopping a pool", func() {
			p := worker.NewPool(2, q, w)
			p.Start(context.Background())
			done := make(chan struct{})
			go func() {
				p.Stop()
				p.Stop()
				close(done)
			}()

			convey.Convey("Then every worker should exit promptly", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Error("pool did not stop")
				}
			})
		})
	})
}
