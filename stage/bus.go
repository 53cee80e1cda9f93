package stage

// Feed is one synchronous event category: subscribers are invoked in
// subscription order, on the emitter's stack, with no queuing and no
// delivery retry. Unsubscribing (or subscribing) from inside a handler is
// safe; the in-flight emit keeps working on the snapshot it started with.
type Feed[T any] struct {
	seq  int
	subs []feedSub[T]
}

type feedSub[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (f *Feed[T]) Subscribe(fn func(T)) (cancel func()) {
	f.seq++
	id := f.seq
	f.subs = append(f.subs, feedSub[T]{id: id, fn: fn})
	return func() {
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit invokes every current subscriber with ev, in subscription order.
func (f *Feed[T]) Emit(ev T) {
	for _, s := range f.subs {
		s.fn(ev)
	}
}

// Len reports the current subscriber count.
func (f *Feed[T]) Len() int {
	return len(f.subs)
}

// Clear drops all subscribers.
func (f *Feed[T]) Clear() {
	f.subs = nil
}

// Bus decouples the time-advancing driver from its consumers: four
// independent feeds with no cross-category ordering guarantee. The driver
// emits; trigger and procedural logic subscribe without the driver knowing
// consumer count or identity.
type Bus struct {
	tick       Feed[TickEvent]
	seek       Feed[SeekEvent]
	clip       Feed[ClipUpdateEvent]
	procedural Feed[ProceduralUpdateEvent]
}

// NewBus builds an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) OnTick(fn func(TickEvent)) (cancel func()) { return b.tick.Subscribe(fn) }
func (b *Bus) OnSeek(fn func(SeekEvent)) (cancel func()) { return b.seek.Subscribe(fn) }
func (b *Bus) OnClipUpdate(fn func(ClipUpdateEvent)) (cancel func()) {
	return b.clip.Subscribe(fn)
}
func (b *Bus) OnProceduralUpdate(fn func(ProceduralUpdateEvent)) (cancel func()) {
	return b.procedural.Subscribe(fn)
}

func (b *Bus) EmitTick(ev TickEvent)             { b.tick.Emit(ev) }
func (b *Bus) EmitSeek(ev SeekEvent)             { b.seek.Emit(ev) }
func (b *Bus) EmitClipUpdate(ev ClipUpdateEvent) { b.clip.Emit(ev) }
func (b *Bus) EmitProceduralUpdate(ev ProceduralUpdateEvent) {
	b.procedural.Emit(ev)
}

// Clear removes every subscriber in every category. Used on mode teardown.
func (b *Bus) Clear() {
	b.tick.Clear()
	b.seek.Clear()
	b.clip.Clear()
	b.procedural.Clear()
}
