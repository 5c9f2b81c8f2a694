package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/othello/config"
	"github.com/domino14/othello/level"
	"github.com/domino14/othello/session"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

const afterD3 = "8E/8E/8E/3EBW3E/3E2B3E/3EB4E/8E/8E/W"

func newController(t *testing.T) *ShellController {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigLevels, []map[string]any{
		{"depth": 1, "evaluator": "material"},
		{"depth": 2, "evaluator": "composite"},
	})
	reg, err := level.NewRegistry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return NewShellController(cfg, session.New(reg), &bytes.Buffer{}, &bytes.Buffer{})
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"log 3 -last 2",
			&shellcmd{"log", []string{"3"}, CmdOptions{"last": []string{"2"}}},
			nil},
		{"BEST 2",
			&shellcmd{"best", []string{"2"}, CmdOptions{}},
			nil},
		{"moves 8E/8E/8E/3EBW3E/3EWB3E/8E/8E/8E W",
			&shellcmd{"moves",
				[]string{"8E/8E/8E/3EBW3E/3EWB3E/8E/8E/8E", "W"},
				CmdOptions{}},
			nil},
		{"board",
			&shellcmd{"board", nil, CmdOptions{}},
			nil},
		{"cache 1 -last",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestCmdOptions(t *testing.T) {
	is := is.New(t)
	opts := CmdOptions{"last": []string{"5"}}
	n, err := opts.Int("last")
	is.NoErr(err)
	is.Equal(n, 5)
	_, err = opts.Int("missing")
	is.True(err != nil)
	_, err = CmdOptions{"last": []string{"x"}}.Int("last")
	is.True(err != nil)

	n, err = lastOption(&shellcmd{cmd: "log", options: CmdOptions{}})
	is.NoErr(err)
	is.Equal(n, 0)
	_, err = lastOption(&shellcmd{cmd: "log", options: CmdOptions{"first": []string{"1"}}})
	is.Equal(err.Error(), "option first not recognized")
}

func TestExecuteBoardCommands(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	ctx := context.Background()

	r, err := sc.Execute(ctx, "")
	is.NoErr(err)
	is.True(r == nil)

	r, err = sc.Execute(ctx, "move d3")
	is.NoErr(err)
	is.Equal(r.Message(), afterD3)

	r, err = sc.Execute(ctx, "board")
	is.NoErr(err)
	is.True(strings.HasSuffix(r.Message(), afterD3))

	r, err = sc.Execute(ctx, "moves")
	is.NoErr(err)
	is.Equal(r.Message(), "c3 c5 e3")

	r, err = sc.Execute(ctx, "moves 8E/8E/8E/3EBW3E/3EWB3E/8E/8E/8E")
	is.NoErr(err)
	is.Equal(r.Message(), "c4 d3 e6 f5")

	// an illegal move leaves the board alone.
	_, err = sc.Execute(ctx, "move a1")
	is.True(err != nil)
	r, err = sc.Execute(ctx, "board")
	is.NoErr(err)
	is.True(strings.HasSuffix(r.Message(), afterD3))

	_, err = sc.Execute(ctx, "frobnicate")
	is.True(err != nil)
}

func TestExecuteLevelCommands(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	ctx := context.Background()

	r, err := sc.Execute(ctx, "best 1 8E/8E/8E/3EBW3E/3EWB3E/8E/8E/8E B")
	is.NoErr(err)
	is.Equal(r.Message(), "c4 3")

	r, err = sc.Execute(ctx, "ranked 1")
	is.NoErr(err)
	is.Equal(r.Message(), "c4 3\nd3 3\ne6 3\nf5 3")

	r, err = sc.Execute(ctx, "log 1 ranked")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "kind: ranked")
	assert.NotContains(t, r.Message(), "kind: best")

	r, err = sc.Execute(ctx, "log 1 -last 1")
	is.NoErr(err)
	assert.Equal(t, 1, strings.Count(r.Message(), "kind:"))

	r, err = sc.Execute(ctx, "stats 1")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "searches:")

	r, err = sc.Execute(ctx, "cache 1 -last 3")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "stats:")

	_, err = sc.Execute(ctx, "log 2")
	is.True(errors.Is(err, level.ErrUnknownLevel))

	_, err = sc.Execute(ctx, "best 9")
	is.True(errors.Is(err, level.ErrInvalidLevel))

	_, err = sc.Execute(ctx, "best one")
	is.True(err != nil)

	// options a command doesn't take are reported, not ignored.
	for _, line := range []string{"best 1 -foo x", "log 1 -lst 2", "cache 1 -depth 3",
		"moves -last 1", "profile 1 drop -last 1"} {
		_, err = sc.Execute(ctx, line)
		is.True(err != nil)
		assert.Contains(t, err.Error(), "not recognized", line)
	}
	_, err = sc.Execute(ctx, "log 1 -last x")
	is.True(err != nil)

	r, err = sc.Execute(ctx, "profile 1 drop")
	is.NoErr(err)
	is.Equal(r.Message(), "dropped level 1")
	_, err = sc.Execute(ctx, "log 1")
	is.True(errors.Is(err, level.ErrUnknownLevel))
}

func TestQuit(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	ctx := context.Background()
	_, err := sc.Execute(ctx, "move d3")
	is.NoErr(err)
	r, err := sc.Execute(ctx, "quit")
	is.NoErr(err)
	is.True(r.Quit())
	r, err = sc.Execute(ctx, "moves")
	is.NoErr(err)
	is.Equal(r.Message(), "c4 d3 e6 f5")
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	r, err := sc.Execute(context.Background(), "help")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "best <level> [board]")
	r, err = sc.Execute(context.Background(), "help script")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "othello_exec")
	r, err = sc.Execute(context.Background(), "help nothing")
	is.NoErr(err)
	assert.Contains(t, r.Message(), "no help text")
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	path := filepath.Join(t.TempDir(), "test.lua")
	script := `
local json = require("json")
local b = othello_best(1)
othello_print(b.move .. " " .. b.score)
local r = othello_ranked(1)
othello_print(#r)
othello_print(othello_exec("moves"))
local out, err = othello_exec("best 99")
othello_print(tostring(out == nil and err ~= nil))
othello_print(json.encode({n = 1}))
`
	is.NoErr(os.WriteFile(path, []byte(script), 0644))

	r, err := sc.Execute(context.Background(), "script "+path)
	is.NoErr(err)
	is.Equal(r.Message(), "c4 3\n4\nc4 d3 e6 f5\ntrue\n{\"n\":1}")
}

func TestScriptErrors(t *testing.T) {
	is := is.New(t)
	sc := newController(t)
	_, err := sc.Execute(context.Background(), "script")
	is.True(err != nil)
	_, err = sc.Execute(context.Background(), "script /does/not/exist.lua")
	is.True(err != nil)
}
