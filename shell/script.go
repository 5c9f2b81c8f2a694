package shell

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("othello_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func getContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// pushJSON converts v to a Lua table by way of JSON.
func pushJSON(L *lua.LState, v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	lv, err := luajson.Decode(L, data)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lv)
	return 1
}

func Exec(L *lua.LState) int {
	line := L.CheckString(1)
	sc := getShell(L)
	r, err := sc.Execute(getContext(L), line)
	if err != nil {
		log.Err(err).Str("line", line).Msg("error-executing-line")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if r == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

type bestResult struct {
	Move  string   `json:"move"`
	Score int      `json:"score"`
	Depth int      `json:"depth"`
	Nodes uint64   `json:"nodes"`
	PV    []string `json:"pv"`
}

func Best(L *lua.LState) int {
	id := L.CheckInt(1)
	boardText := L.OptString(2, "")
	sc := getShell(L)
	res, err := sc.session.Best(getContext(L), id, boardText)
	if err != nil {
		log.Err(err).Msg("error-executing-best")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	return pushJSON(L, bestResult{
		Move:  res.Move.String(),
		Score: res.Score,
		Depth: res.Depth,
		Nodes: res.Nodes,
		PV:    res.PV.Strings(),
	})
}

type rankedResult struct {
	Move  string `json:"move"`
	Score int    `json:"score"`
}

func Ranked(L *lua.LState) int {
	id := L.CheckInt(1)
	boardText := L.OptString(2, "")
	sc := getShell(L)
	ranking, err := sc.session.Ranked(getContext(L), id, boardText)
	if err != nil {
		log.Err(err).Msg("error-executing-ranked")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	out := make([]rankedResult, len(ranking.Moves))
	for i, m := range ranking.Moves {
		out[i] = rankedResult{Move: m.Move.String(), Score: m.Score}
	}
	return pushJSON(L, out)
}

func Print(L *lua.LState) int {
	sc := getShell(L)
	if sc.scriptOut == nil {
		sc.scriptOut = &strings.Builder{}
	}
	sc.scriptOut.WriteString(L.ToString(1))
	sc.scriptOut.WriteString("\n")
	return 0
}

func (sc *ShellController) script(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	prevOut := sc.scriptOut
	sc.scriptOut = &strings.Builder{}
	defer func() { sc.scriptOut = prevOut }()

	L.SetGlobal("othello_shell", lsc)
	L.SetGlobal("othello_exec", L.NewFunction(Exec))
	L.SetGlobal("othello_best", L.NewFunction(Best))
	L.SetGlobal("othello_ranked", L.NewFunction(Ranked))
	L.SetGlobal("othello_print", L.NewFunction(Print))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg(strings.TrimSuffix(sc.scriptOut.String(), "\n")), nil
}
