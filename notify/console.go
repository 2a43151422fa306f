package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var kindColors = map[Kind]string{
	KindSuccess: Green,
	KindError:   Red,
}

var kindSymbols = map[Kind]string{
	KindSuccess: "✔",
	KindError:   "✖",
}

var _ Notifier = (*Console)(nil)

// Console writes notices as single coloured lines
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	colour bool
}

// NewConsole writes to out; colour toggles the ANSI escapes
func NewConsole(out io.Writer, colour bool) *Console {
	return &Console{out: out, colour: colour}
}

func (c *Console) Notify(kind Kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Debug().Str("kind", string(kind)).Msg(message)

	symbol, ok := kindSymbols[kind]
	if !ok {
		symbol = "•"
	}
	line := fmt.Sprintf("%s %s", symbol, message)
	if c.colour {
		colour, ok := kindColors[kind]
		if !ok {
			colour = Gray
		}
		line = colour + line + ResetColor
	}
	fmt.Fprintln(c.out, line)
}
