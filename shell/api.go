package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/othello/board"
	"github.com/domino14/othello/negamax"
	"github.com/domino14/othello/telemetry"
)

type Response struct {
	message string
	quit    bool
}

func (r *Response) Message() string {
	return r.message
}

// Quit is true for the command that ends the session.
func (r *Response) Quit() bool {
	return r.quit
}

type CmdOptions map[string][]string

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func msg(message string) *Response {
	return &Response{message: message}
}

// lastOption reads -last, the only option the log commands take.
func lastOption(cmd *shellcmd) (int, error) {
	last := 0
	var err error
	for opt := range cmd.options {
		switch opt {
		case "last":
			last, err = cmd.options.Int(opt)
			if err != nil {
				return 0, err
			}
		default:
			return 0, errors.New("option " + opt + " not recognized")
		}
	}
	return last, nil
}

func noOptions(cmd *shellcmd) error {
	for opt := range cmd.options {
		return errors.New("option " + opt + " not recognized")
	}
	return nil
}

func (sc *ShellController) dispatch(ctx context.Context, cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "log", "stats", "cache", "profile":
	default:
		if err := noOptions(cmd); err != nil {
			return nil, err
		}
	}
	switch cmd.cmd {
	case "quit", "exit":
		sc.session.Quit()
		return &Response{quit: true}, nil
	case "move":
		return sc.move(cmd)
	case "board":
		return sc.board(cmd)
	case "moves":
		return sc.moves(cmd)
	case "best":
		return sc.best(ctx, cmd)
	case "ranked":
		return sc.ranked(ctx, cmd)
	case "log":
		return sc.log(cmd)
	case "stats":
		return sc.stats(cmd)
	case "cache":
		return sc.cache(cmd)
	case "drop":
		return sc.drop(cmd)
	case "profile":
		return sc.profile(cmd)
	case "script":
		return sc.script(ctx, cmd)
	case "help":
		return sc.help(cmd)
	}
	return nil, fmt.Errorf("unknown command %q; type help for a list", cmd.cmd)
}

// optionalBoard joins the args from idx on, so a board given as two words
// (ranks and side to move) still parses.
func optionalBoard(cmd *shellcmd, idx int) string {
	if len(cmd.args) <= idx {
		return ""
	}
	return strings.Join(cmd.args[idx:], " ")
}

func levelArg(cmd *shellcmd) (int, error) {
	if len(cmd.args) == 0 {
		return 0, fmt.Errorf("usage: %s <level> ...", cmd.cmd)
	}
	id, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return 0, fmt.Errorf("level must be a number, not %q", cmd.args[0])
	}
	return id, nil
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: move <move> [board]")
	}
	p, err := sc.session.Move(cmd.args[0], optionalBoard(cmd, 1))
	if err != nil {
		return nil, err
	}
	return msg(p.String()), nil
}

func (sc *ShellController) board(cmd *shellcmd) (*Response, error) {
	p := sc.session.Board()
	return msg(p.ToDisplayText() + p.String()), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	moves, err := sc.session.Moves(optionalBoard(cmd, 0))
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		return msg("none (game over)"), nil
	}
	return msg(strings.Join(lo.Map(moves, func(m board.Move, _ int) string {
		return m.String()
	}), " ")), nil
}

func (sc *ShellController) best(ctx context.Context, cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	res, err := sc.session.Best(ctx, id, optionalBoard(cmd, 1))
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s %d", res.Move, res.Score)), nil
}

func (sc *ShellController) ranked(ctx context.Context, cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	ranking, err := sc.session.Ranked(ctx, id, optionalBoard(cmd, 1))
	if err != nil {
		return nil, err
	}
	lines := lo.Map(ranking.Moves, func(m negamax.RankedMove, _ int) string {
		return m.String()
	})
	return msg(strings.Join(lines, "\n")), nil
}

func logFilter(cmd *shellcmd) (telemetry.Filter, error) {
	f := telemetry.Filter{}
	if len(cmd.args) > 1 {
		kind, ok := telemetry.ParseKind(cmd.args[1])
		if !ok {
			return f, fmt.Errorf("kind must be best or ranked, not %q", cmd.args[1])
		}
		f.Kind = kind
	}
	last, err := lastOption(cmd)
	if err != nil {
		return f, err
	}
	f.Last = last
	return f, nil
}

func (sc *ShellController) log(cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	f, err := logFilter(cmd)
	if err != nil {
		return nil, err
	}
	recs, err := sc.session.Log(id, f)
	if err != nil {
		return nil, err
	}
	out, err := telemetry.ToYAML(recs)
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(out, "\n")), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	f, err := logFilter(cmd)
	if err != nil {
		return nil, err
	}
	summary, err := sc.session.Summary(id, f)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := summary.Fprint(&sb); err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(sb.String(), "\n")), nil
}

type cacheEntryView struct {
	Fingerprint string `yaml:"fingerprint"`
	Depth       int    `yaml:"depth"`
	Bound       string `yaml:"bound"`
	Score       int    `yaml:"score"`
	Move        string `yaml:"move,omitempty"`
}

type cacheView struct {
	Stats   negamax.TTStats  `yaml:"stats"`
	Entries []cacheEntryView `yaml:"entries"`
}

func (sc *ShellController) cache(cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	last, err := lastOption(cmd)
	if err != nil {
		return nil, err
	}
	entries, stats, err := sc.session.CacheSnapshot(id)
	if err != nil {
		return nil, err
	}
	if last > 0 && len(entries) > last {
		entries = entries[len(entries)-last:]
	}
	view := cacheView{
		Stats: stats,
		Entries: lo.Map(entries, func(e negamax.TableEntry, _ int) cacheEntryView {
			v := cacheEntryView{
				Fingerprint: fmt.Sprintf("%016x", e.Fingerprint),
				Depth:       int(e.Depth),
				Bound:       e.FlagString(),
				Score:       int(e.Score),
			}
			if e.HasMove {
				v.Move = e.Move.String()
			}
			return v
		}),
	}
	out, err := yaml.Marshal(view)
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimSuffix(string(out), "\n")), nil
}

func (sc *ShellController) drop(cmd *shellcmd) (*Response, error) {
	id, err := levelArg(cmd)
	if err != nil {
		return nil, err
	}
	if err := sc.session.Drop(id); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("dropped level %d", id)), nil
}

// profile is the older spelling: profile <level> log|drop|stats.
func (sc *ShellController) profile(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: profile <level> log|drop|stats")
	}
	sub := &shellcmd{
		cmd:     cmd.args[1],
		args:    append([]string{cmd.args[0]}, cmd.args[2:]...),
		options: cmd.options,
	}
	switch sub.cmd {
	case "log":
		return sc.log(sub)
	case "drop":
		if err := noOptions(sub); err != nil {
			return nil, err
		}
		return sc.drop(sub)
	case "stats":
		return sc.stats(sub)
	}
	return nil, fmt.Errorf("unknown profile command %q", sub.cmd)
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb)
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(strings.TrimSuffix(sb.String(), "\n")), nil
}
