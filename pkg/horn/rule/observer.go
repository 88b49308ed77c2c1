package rule

import "time"

// Observer receives pipeline timings and mutation outcomes. Implementations
// are called synchronously from the search and must not retain the rule.
type Observer interface {
	StageDone(stage Stage, elapsed time.Duration)
	Updated(kind OpKind, status Status)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) StageDone(Stage, time.Duration) {}
func (NopObserver) Updated(OpKind, Status)         {}

// Observers fans out to several observers in order.
type Observers []Observer

func (o Observers) StageDone(stage Stage, elapsed time.Duration) {
	for _, obs := range o {
		obs.StageDone(stage, elapsed)
	}
}

func (o Observers) Updated(kind OpKind, status Status) {
	for _, obs := range o {
		obs.Updated(kind, status)
	}
}
