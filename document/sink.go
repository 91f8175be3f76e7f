package document

import "io"

// sink wraps the destination writer and tracks the running byte offset so
// object positions can be captured for the cross-reference table. The first
// write error sticks and every later write becomes a no-op returning it.
type sink struct {
	w      io.Writer
	offset int64
	err    error
}

func newSink(w io.Writer) *sink { return &sink{w: w} }

func (s *sink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.offset += int64(n)
	if err != nil {
		s.err = err
	}
	return n, err
}

func (s *sink) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Offset returns the number of bytes written so far.
func (s *sink) Offset() int64 { return s.offset }

// Err returns the first write error, if any.
func (s *sink) Err() error { return s.err }
