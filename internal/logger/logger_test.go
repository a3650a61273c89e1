package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luapack/luapack/internal/logger"
)

func TestDeferLogLocations(t *testing.T) {
	source := &logger.Source{
		AbsPath:    "/project/main.lua",
		PrettyPath: "main.lua",
		Contents:   "local a = 1\nrequire \"missing\"\nreturn a\n",
	}

	log := logger.NewDeferLog()
	r := logger.Range{Loc: logger.Loc{Start: 20}, Len: 9}
	log.AddRangeWarning(source, r, "could not read file")
	require.False(t, log.HasErrors())

	msgs := log.Done()
	require.Len(t, msgs, 1)

	loc := msgs[0].Location
	require.NotNil(t, loc)
	require.Equal(t, "main.lua", loc.File)
	require.Equal(t, 2, loc.Line)
	require.Equal(t, 8, loc.Column)
	require.Equal(t, 9, loc.Length)
	require.Equal(t, "require \"missing\"", loc.LineText)
}

func TestDeferLogHasErrors(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddError(nil, logger.Loc{}, "entry point not found")
	require.True(t, log.HasErrors())

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Error, msgs[0].Kind)
	require.Nil(t, msgs[0].Location)
}

func TestDoneSortsByLocation(t *testing.T) {
	source := &logger.Source{
		AbsPath:    "/project/main.lua",
		PrettyPath: "main.lua",
		Contents:   "x\ny\nz\n",
	}

	log := logger.NewDeferLog()
	log.AddError(source, logger.Loc{Start: 4}, "third")
	log.AddError(source, logger.Loc{Start: 0}, "first")
	log.AddError(source, logger.Loc{Start: 2}, "second")

	msgs := log.Done()
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "second", msgs[1].Text)
	require.Equal(t, "third", msgs[2].Text)
}

func TestMsgStringWithoutColor(t *testing.T) {
	source := &logger.Source{
		AbsPath:    "/project/main.lua",
		PrettyPath: "main.lua",
		Contents:   "require \"a\"\n",
	}

	log := logger.NewDeferLog()
	log.AddRangeError(source, logger.Range{Loc: logger.Loc{Start: 8}, Len: 3}, "bad reference")
	msgs := log.Done()
	require.Len(t, msgs, 1)

	text := msgs[0].String(
		logger.StderrOptions{IncludeSource: true},
		logger.TerminalInfo{},
	)
	require.Equal(t, "main.lua:1:8: error: bad reference\nrequire \"a\"\n        ~~~\n", text)
}

func TestCRLFLineNumbers(t *testing.T) {
	source := &logger.Source{
		AbsPath:    "/project/main.lua",
		PrettyPath: "main.lua",
		Contents:   "a\r\nb\r\nc\r\n",
	}

	log := logger.NewDeferLog()
	log.AddError(source, logger.Loc{Start: 6}, "here")
	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, 3, msgs[0].Location.Line)
	require.Equal(t, 0, msgs[0].Location.Column)
	require.Equal(t, "c", msgs[0].Location.LineText)
}
