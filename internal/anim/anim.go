// Package anim implements the sprite-animation-stream Anim
// collaborator, grounded on ai_shimai_sys_anim's case 0-8 selector
// (InitStream/Start/Stop/Halt/Wait/StopAll/HaltAll/ResetAll/
// ExecCopyCall) -- the only anim-handling source this spec retrieved.
// Streams are numbered per animStreamIndex's `a*10+b` pairing scheme.
package anim

import "fmt"

// Stream is one animation stream's runtime state.
type Stream struct {
	Running bool
	Halted  bool
	OffsetX int
	OffsetY int
	source  uint32
}

// Streams owns every numbered animation stream a title may address.
type Streams struct {
	byIndex map[uint32]*Stream
}

func New() *Streams { return &Streams{byIndex: map[uint32]*Stream{}} }

func (s *Streams) get(stream uint32) *Stream {
	st, ok := s.byIndex[stream]
	if !ok {
		st = &Stream{}
		s.byIndex[stream] = st
	}
	return st
}

// InitStream implements System.Anim.function[0]: seats stream, copying
// its source index so ExecCopyCall knows where to pull frame data from.
func (s *Streams) InitStream(stream, copyFrom uint32) error {
	st := s.get(stream)
	st.source = copyFrom
	st.Running, st.Halted = false, false
	return nil
}

func (s *Streams) Start(stream uint32) error {
	s.get(stream).Running = true
	return nil
}

func (s *Streams) Stop(stream uint32) { s.get(stream).Running = false }

func (s *Streams) Halt(stream uint32) { s.get(stream).Halted = true }

// Wait blocks the caller until the named stream stops running; the
// host run loop is expected to be ticking Streams concurrently via its
// own animation clock (original_source's anim_wait polls the same way
// from the main thread, since the original has no separate ticker
// either).
func (s *Streams) Wait(stream uint32) {
	for s.get(stream).Running {
	}
}

func (s *Streams) StopAll() {
	for _, st := range s.byIndex {
		st.Running = false
	}
}

func (s *Streams) HaltAll() {
	for _, st := range s.byIndex {
		st.Halted = true
	}
}

func (s *Streams) ResetAll() {
	s.byIndex = map[uint32]*Stream{}
}

// ExecCopyCall implements System.Anim.function[8]: runs one copy-call
// frame from the stream's source, per ai_shimai_sys_anim case 8. The
// actual per-frame graphics copy is a Graphics concern this package
// doesn't own; callers needing the copy wired through should do so at
// the Dispatcher layer where both Anim and Graphics are in scope --
// this just validates the stream exists and reports its source.
func (s *Streams) ExecCopyCall(stream uint32) error {
	st, ok := s.byIndex[stream]
	if !ok {
		return fmt.Errorf("anim: stream %d not initialized", stream)
	}
	_ = st.source
	return nil
}

func (s *Streams) SetOffset(stream uint32, x, y int) {
	st := s.get(stream)
	st.OffsetX, st.OffsetY = x, y
}
