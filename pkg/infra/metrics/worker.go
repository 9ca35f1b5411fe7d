package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

// Worker runs fire-and-forget tasks off the request path.
type Worker interface {
	StartWorkers(n int)
	Enqueue(queue string, task func()) bool
	Shutdown()
}

type worker struct {
	logger   *logrus.Logger
	taskChan chan func()
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   atomic.Bool
}

func NewWorker(logger *logrus.Logger, queueSize int) Worker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &worker{
		logger:   logger,
		taskChan: make(chan func(), queueSize),
	}
}

func (m *worker) StartWorkers(n int) {
	m.logger.WithField("workers", n).Info("starting event workers")
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for task := range m.taskChan {
				m.run(task)
			}
		}()
	}
}

func (m *worker) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("event task panicked")
		}
	}()
	task()
}

// Enqueue never blocks; a full queue drops the task.
func (m *worker) Enqueue(queue string, task func()) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed.Load() {
		return false
	}
	select {
	case m.taskChan <- task:
		return true
	default:
		prometheus.DroppedEventTasks.WithLabelValues(queue).Inc()
		m.logger.WithField("queue", queue).Warn("task queue is full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (m *worker) Shutdown() {
	m.mu.Lock()
	if m.closed.Swap(true) {
		m.mu.Unlock()
		return
	}
	m.logger.Info("shutting down event workers")
	close(m.taskChan)
	m.mu.Unlock()
	m.wg.Wait()
	m.logger.Info("event workers stopped")
}
