package console

import (
	"io"
	"os"
)

// writer hands log output to a separate goroutine so a slow or dead console
// can never stall the event dispatch path. Entries are dropped when the
// buffer is full or the sink stops accepting writes.
type writer struct {
	wc    chan []byte
	flush chan chan struct{}
}

func newWriter() *writer {
	w := &writer{
		wc:    make(chan []byte, 1<<12),
		flush: make(chan chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b := make([]byte, len(p))
	copy(b, p)
	select {
	case w.wc <- b:
	default:
	}

	return len(p), nil
}

func (w *writer) Flush() {
	ack := make(chan struct{})
	w.flush <- ack
	<-ack
}

func (w *writer) run() {
	for {
		select {
		case b := <-w.wc:
			w.sink(b)

		case ack := <-w.flush:
		drained:
			for {
				select {
				case b := <-w.wc:
					w.sink(b)
				default:
					break drained
				}
			}
			close(ack)
		}
	}
}

func (w *writer) sink(b []byte) {
	for m := 0; m < len(b); {
		n, err := os.Stderr.Write(b[m:])
		if n == 0 || err != nil {
			return
		}
		m += n
	}
}

var std = newWriter()

// Writer is the sink for the process's log output.
var Writer io.Writer = std

// Flush blocks until every entry queued before the call has been written.
// Call it before os.Exit so the final log lines are not dropped.
func Flush() {
	std.Flush()
}
