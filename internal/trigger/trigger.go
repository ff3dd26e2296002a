package trigger

import (
	"sync"

	"github.com/voxkey/voxkey/internal/capture"
	"github.com/voxkey/voxkey/internal/hotkey"
)

// Controller is the recorder surface the adapter drives. Satisfied by
// capture.Recorder.
type Controller interface {
	Start() error
	Stop() ([]float32, error)
	IsCapturing() bool
}

// Adapter maps hotkey press/release events 1:1 onto controller Start/Stop
// calls and hands each completed capture to the downstream consumer.
// The hotkey layer has already de-duplicated key repeats, so the mapping
// carries no state of its own.
type Adapter struct {
	ctrl     Controller
	events   <-chan hotkey.Event
	captures chan []float32
	log      capture.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a trigger adapter. Completed captures are delivered on the
// Captures channel; a capture is dropped with a warning if the consumer
// has not drained the previous one.
func New(events <-chan hotkey.Event, ctrl Controller, log capture.Logger) *Adapter {
	return &Adapter{
		ctrl:     ctrl,
		events:   events,
		captures: make(chan []float32, 1),
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Run begins consuming trigger events
func (a *Adapter) Run() {
	a.wg.Add(1)
	go a.loop()
}

func (a *Adapter) loop() {
	defer a.wg.Done()

	for {
		select {
		case event, ok := <-a.events:
			if !ok {
				return
			}
			a.handle(event)

		case <-a.stopChan:
			return
		}
	}
}

func (a *Adapter) handle(event hotkey.Event) {
	switch event.Type {
	case hotkey.Pressed:
		if err := a.ctrl.Start(); err != nil {
			a.log.Error("Failed to start capture: %v", err)
		}

	case hotkey.Released:
		samples, err := a.ctrl.Stop()
		if err != nil {
			a.log.Error("Failed to stop capture: %v", err)
			return
		}
		if len(samples) == 0 {
			// Release without a matching session; nothing to deliver
			return
		}

		select {
		case a.captures <- samples:
		default:
			a.log.Warn("Capture channel full, dropping %d samples", len(samples))
		}
	}
}

// Captures returns the channel carrying completed recordings
func (a *Adapter) Captures() <-chan []float32 {
	return a.captures
}

// Stop shuts down the event loop. Safe to call more than once.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.wg.Wait()
		close(a.captures)
	})
}
