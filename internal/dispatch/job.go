package dispatch

import (
	"strconv"
	"strings"
)

// Job is one external process invocation.
type Job struct {
	Name    string // used in logs only
	Program string
	Args    []string

	// OnComplete, if set, is called once the process has exited, with nil on
	// success or the *JobError. It runs on the reaping goroutine before the
	// slot is freed. It is not called when the process fails to start.
	OnComplete func(err error)
}

// CommandLine renders the job roughly the way a shell would show it.
func (j Job) CommandLine() string {
	parts := make([]string, 0, len(j.Args)+1)
	parts = append(parts, quote(j.Program))
	for _, a := range j.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func (j Job) label() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Program
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"\\$") {
		return strconv.Quote(s)
	}
	return s
}
