package modem

import (
	"slices"
	"strings"

	"i4.energy/across/simmodem/at"
)

// Response holds the lines of one transaction in arrival order: command
// echoes, payload, blank lines and the terminal token.
type Response []string

// Last returns the final line, or "" for an empty response.
func (r Response) Last() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

// Command describes one AT transaction.
//
// Steps are written in order before a single read, so the response of a
// multi step command is the batch of all echoes and replies. Unless Success
// is set, the transaction is accepted when the last line is one of
// Terminals, OK by default.
type Command struct {
	Steps     []string
	Probe     string
	Terminals []string
	Success   func(Response) bool
}

// Cmd builds a command from its steps.
func Cmd(steps ...string) Command {
	return Command{Steps: steps}
}

// Probing sets the test form sent first when probing is enabled.
func (c Command) Probing(probe string) Command {
	c.Probe = probe
	return c
}

// Accepting replaces the terminal token check with fn.
func (c Command) Accepting(fn func(Response) bool) Command {
	c.Success = fn
	return c
}

func (c Command) String() string {
	return strings.Join(c.Steps, "; ")
}

func (c Command) accepts(r Response) bool {
	if c.Success != nil {
		return c.Success(r)
	}
	terminals := c.Terminals
	if len(terminals) == 0 {
		terminals = []string{at.OK}
	}
	return len(r) > 0 && slices.Contains(terminals, r.Last())
}
