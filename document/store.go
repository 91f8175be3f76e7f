package document

import "fmt"

// referenceStore tracks every allocated indirect object: the byte offset it
// was written at, and the bookkeeping that lets the document be ended while
// some objects are still open. An object is "pending" between allocation and
// the recording of its offset; the file trailer may only be written once no
// objects are pending.
type referenceStore struct {
	// offsets is indexed by object number minus one; -1 marks a pending
	// object.
	offsets      []int64
	waiting      int
	endRequested bool
	onComplete   []func()
}

func newReferenceStore() *referenceStore { return &referenceStore{} }

// allocate hands out the next object number, starting at 1.
func (s *referenceStore) allocate() int {
	s.offsets = append(s.offsets, -1)
	s.waiting++
	return len(s.offsets)
}

// recordOffset stores the byte offset of a finished object. When the last
// pending object finishes after end has been requested, the completion
// callbacks fire.
func (s *referenceStore) recordOffset(id int, offset int64) {
	if id < 1 || id > len(s.offsets) {
		panic(fmt.Sprintf("document: offset recorded for unallocated object %d", id))
	}
	if s.offsets[id-1] != -1 {
		panic(fmt.Sprintf("document: object %d written twice", id))
	}
	s.offsets[id-1] = offset
	s.waiting--
	if s.waiting == 0 && s.endRequested {
		s.fireComplete()
	}
}

// requestEnd marks the document as ended and reports whether every object
// has already been written. If not, the registered callbacks fire later,
// from the recordOffset call that retires the last pending object.
func (s *referenceStore) requestEnd() bool {
	s.endRequested = true
	if s.waiting == 0 {
		s.fireComplete()
		return true
	}
	return false
}

func (s *referenceStore) notifyComplete(fn func()) {
	s.onComplete = append(s.onComplete, fn)
}

func (s *referenceStore) fireComplete() {
	fns := s.onComplete
	s.onComplete = nil
	for _, fn := range fns {
		fn()
	}
}
