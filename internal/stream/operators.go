package stream

import "sync"

// Map transforms each value of src through f.
func Map[A, B any](src Source[A], f func(A) B) Source[B] {
	return SourceFunc[B](func(o Observer[B]) *Subscription {
		return src.Subscribe(Observer[A]{
			Next: func(v A) { o.next(f(v)) },
			Err:  o.Err,
			Done: o.Done,
		})
	})
}

// Filter forwards only values for which pred returns true.
func Filter[T any](src Source[T], pred func(T) bool) Source[T] {
	return SourceFunc[T](func(o Observer[T]) *Subscription {
		return src.Subscribe(Observer[T]{
			Next: func(v T) {
				if pred(v) {
					o.next(v)
				}
			},
			Err:  o.Err,
			Done: o.Done,
		})
	})
}

// First emits the first value matching pred, then completes and cancels its
// upstream subscription. At most one value is ever delivered downstream,
// even when the match arrives synchronously during Subscribe.
func First[T any](src Source[T], pred func(T) bool) Source[T] {
	return SourceFunc[T](func(o Observer[T]) *Subscription {
		fired := false
		var upstream *Subscription
		upstream = src.Subscribe(Observer[T]{
			Next: func(v T) {
				if fired || !pred(v) {
					return
				}
				fired = true
				o.next(v)
				o.done()
				// Upstream may still be mid-Subscribe when the match is
				// replayed synchronously; the post-Subscribe check below
				// covers that window.
				if upstream != nil {
					upstream.Cancel()
				}
			},
			Err:  o.Err,
			Done: o.Done,
		})
		if fired {
			upstream.Cancel()
		}
		return upstream
	})
}

// Pair carries one value from each side of a combination.
type Pair[A, B any] struct {
	First  A
	Second B
}

// CombineLatest2 emits a Pair of the latest values from a and b on every
// emission of either, once both have emitted at least once. The combined
// stream completes when both inputs complete and fails on the first error
// from either input.
func CombineLatest2[A, B any](a Source[A], b Source[B]) Source[Pair[A, B]] {
	return SourceFunc[Pair[A, B]](func(o Observer[Pair[A, B]]) *Subscription {
		var mu sync.Mutex
		var (
			lastA  A
			lastB  B
			haveA  bool
			haveB  bool
			doneA  bool
			doneB  bool
			closed bool
		)

		emit := func() {
			mu.Lock()
			if closed || !haveA || !haveB {
				mu.Unlock()
				return
			}
			p := Pair[A, B]{First: lastA, Second: lastB}
			mu.Unlock()
			o.next(p)
		}

		finish := func() {
			mu.Lock()
			if closed || !doneA || !doneB {
				mu.Unlock()
				return
			}
			closed = true
			mu.Unlock()
			o.done()
		}

		fail := func(err error) {
			mu.Lock()
			if closed {
				mu.Unlock()
				return
			}
			closed = true
			mu.Unlock()
			o.fail(err)
		}

		subA := a.Subscribe(Observer[A]{
			Next: func(v A) {
				mu.Lock()
				lastA = v
				haveA = true
				mu.Unlock()
				emit()
			},
			Err: fail,
			Done: func() {
				mu.Lock()
				doneA = true
				mu.Unlock()
				finish()
			},
		})
		subB := b.Subscribe(Observer[B]{
			Next: func(v B) {
				mu.Lock()
				lastB = v
				haveB = true
				mu.Unlock()
				emit()
			},
			Err: fail,
			Done: func() {
				mu.Lock()
				doneB = true
				mu.Unlock()
				finish()
			},
		})

		return NewSubscription(subA.Cancel, subB.Cancel)
	})
}
