package frame

// Value is whatever the host interpreter computes with. The frame core
// stores and moves values; it never inspects them.
type Value any

// DataStack holds intermediate results produced while evaluating
// expressions inside one lexical scope. Strict LIFO.
type DataStack struct {
	a []Value
	l int
}

// NewDataStack creates a new data stack instance
func NewDataStack(elm ...Value) *DataStack {
	stack := DataStack{
		a: make([]Value, 0),
		l: 0,
	}

	for _, e := range elm {
		stack.l++
		stack.a = append(stack.a, e)
	}

	return &stack
}

// Push adds a value to the top of the stack
func (s *DataStack) Push(elm Value) {
	s.l++
	s.a = append(s.a, elm)
}

// Pop removes and returns the top value of the stack.
// Popping an empty stack is an interpreter defect, not a user error.
func (s *DataStack) Pop() (Value, error) {
	if s.l < 1 {
		return nil, ErrStackUnderflow
	}

	s.l--
	elm := s.a[s.l]
	s.a = s.a[:s.l]

	return elm, nil
}

// Peek returns the top value of the stack without removing it
func (s *DataStack) Peek() (Value, bool) {
	if s.l < 1 {
		return nil, false
	}

	return s.a[s.l-1], true
}

// Get the size of the stack
func (s *DataStack) Size() int {
	return s.l
}

// Values returns the underlying array of the stack, bottom first
func (s *DataStack) Values() []Value {
	return s.a
}
