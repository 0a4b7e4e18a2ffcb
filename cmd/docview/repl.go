package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justyntemme/docview/internal/app"
	"github.com/justyntemme/docview/internal/model"
)

// controller is the orchestrator surface the prompt drives.
type controller interface {
	Navigate(path string)
	Up()
	Back()
	Search(query string)
	SetMode(mode model.Mode)
	SetSort(order model.SortOrder)
	SetFilter(accept []string)
	Refresh()
	Check(positions []int, checked bool)
	Open(position int)
	DeleteChecked()
	ShareChecked()
	Post(fn func(vm *app.DirectoryViewModel))
	Quit()
}

type scroller interface {
	Scroll(delta int)
}

// prefs is the persisted configuration.
type prefs interface {
	Path() string
	SetDefaultMode(mode model.Mode) error
}

type repl struct {
	o       controller
	view    scroller
	prefs   prefs
	aliases map[string]string
	out     io.Writer
}

func newREPL(o controller, view scroller, p prefs, aliases map[string]string, out io.Writer) *repl {
	return &repl{o: o, view: view, prefs: p, aliases: aliases, out: out}
}

const helpText = `commands:
  mode list|grid       sort name|date|size
  check N...           uncheck N...
  open N               cd PATH | up | back
  search QUERY         refresh
  delete               share
  next | prev          default list|grid
  filter MIME...       config
  quit`

// expand replaces a leading alias with its command.
func (r *repl) expand(line string) string {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if cmd, ok := r.aliases[word]; ok {
		return strings.TrimSpace(cmd + " " + rest)
	}
	return strings.TrimSpace(line)
}

// exec runs one input line and reports whether the session should end.
func (r *repl) exec(line string) bool {
	line = r.expand(line)
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "mode":
		mode, err := model.ParseMode(arg)
		if err != nil {
			r.fail(err)
			return false
		}
		r.o.SetMode(mode)
	case "sort":
		order, err := model.ParseSortOrder(arg)
		if err != nil {
			r.fail(err)
			return false
		}
		r.o.SetSort(order)
	case "filter":
		r.o.SetFilter(strings.Fields(arg))
	case "check", "uncheck":
		positions, err := parsePositions(arg)
		if err != nil {
			r.fail(err)
			return false
		}
		r.o.Check(positions, cmd == "check")
	case "open":
		pos, err := strconv.Atoi(arg)
		if err != nil {
			r.fail(fmt.Errorf("open: %w", err))
			return false
		}
		r.o.Open(pos)
	case "cd":
		r.o.Navigate(arg)
	case "up":
		r.o.Up()
	case "back":
		r.o.Back()
	case "search":
		r.o.Search(arg)
	case "refresh":
		r.o.Refresh()
	case "delete":
		r.o.DeleteChecked()
	case "share":
		r.o.ShareChecked()
	case "next", "prev":
		delta := 1
		if cmd == "prev" {
			delta = -1
		}
		r.o.Post(func(*app.DirectoryViewModel) { r.view.Scroll(delta) })
	case "default":
		mode, err := model.ParseMode(arg)
		if err != nil {
			r.fail(err)
			return false
		}
		if err := r.prefs.SetDefaultMode(mode); err != nil {
			r.fail(err)
			return false
		}
		fmt.Fprintf(r.out, "default mode is now %s\n", mode)
	case "config":
		fmt.Fprintln(r.out, r.prefs.Path())
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "quit", "exit":
		r.o.Quit()
		return true
	default:
		fmt.Fprintf(r.out, "unknown command %q (try help)\n", cmd)
	}
	return false
}

func (r *repl) fail(err error) {
	fmt.Fprintln(r.out, "error:", err)
}

func parsePositions(arg string) ([]int, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no positions given")
	}
	positions := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad position %q", f)
		}
		positions = append(positions, n)
	}
	return positions, nil
}
