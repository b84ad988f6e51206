package kernel

// compactAt is the number of consumed slots after which a queue moves its
// live items back to the front of the backing array.
const compactAt = 64

// queue is an unbounded FIFO of messages.
type queue struct {
	head  int
	items []any
}

func (q *queue) len() int { return len(q.items) - q.head }

func (q *queue) push(msg any) {
	q.items = append(q.items, msg)
}

func (q *queue) pop() (any, bool) {
	if q.head == len(q.items) {
		return nil, false
	}
	msg := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactAt && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return msg, true
}

func (q *queue) peek() (any, bool) {
	if q.head == len(q.items) {
		return nil, false
	}
	return q.items[q.head], true
}
