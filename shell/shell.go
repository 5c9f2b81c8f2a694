package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/othello/config"
	"github.com/domino14/othello/session"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l       *readline.Instance
	config  *config.Config
	session *session.Session

	stdout io.Writer
	stderr io.Writer
	// collects othello_print output while a script runs
	scriptOut *strings.Builder
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController makes a controller that writes results to stdout and
// errors to stderr.
func NewShellController(cfg *config.Config, sess *session.Session, stdout, stderr io.Writer) *ShellController {
	return &ShellController{
		config:  cfg,
		session: sess,
		stdout:  stdout,
		stderr:  stderr,
	}
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("quit"),
	readline.PcItem("move"),
	readline.PcItem("board"),
	readline.PcItem("moves"),
	readline.PcItem("best"),
	readline.PcItem("ranked"),
	readline.PcItem("log"),
	readline.PcItem("stats"),
	readline.PcItem("cache"),
	readline.PcItem("drop"),
	readline.PcItem("profile"),
	readline.PcItem("script"),
	readline.PcItem("help",
		readline.PcItem("best"),
		readline.PcItem("ranked"),
		readline.PcItem("log"),
		readline.PcItem("cache"),
		readline.PcItem("script"),
	),
)

func (sc *ShellController) initReadline() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mothello>\033[0m ",
		HistoryFile:     "/tmp/othello-readline.tmp",
		AutoComplete:    completer,
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		Stdout:          sc.stderr,
		Stderr:          sc.stderr,

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	sc.l = l
	return nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.stdout)
}

func (sc *ShellController) showError(err error) {
	showMessage("error: "+err.Error(), sc.stderr)
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: strings.ToLower(fields[0]), options: CmdOptions{}}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[i][1:]
			cmd.options[key] = append(cmd.options[key], fields[i+1])
			i++
			continue
		}
		cmd.args = append(cmd.args, fields[i])
	}
	return cmd, nil
}

// Execute runs a single command line. An empty line yields a nil response.
func (sc *ShellController) Execute(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err == errNoData {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return sc.dispatch(ctx, cmd)
}

// Loop reads commands until quit, EOF or an interrupt on an empty line.
func (sc *ShellController) Loop(ctx context.Context, sig chan os.Signal) {
	if err := sc.initReadline(); err != nil {
		log.Error().Err(err).Msg("readline-init")
		sig <- syscall.SIGINT
		return
	}
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.Execute(ctx, strings.TrimSpace(line))
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp == nil {
			continue
		}
		if resp.message != "" {
			sc.showMessage(resp.message)
		}
		if resp.quit {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
