package bundler

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/luapack/luapack/internal/fs"
	"github.com/luapack/luapack/internal/logger"
	"github.com/luapack/luapack/internal/runtime"
)

type bundled struct {
	files       map[string]string
	entryPath   string
	modules     []runtime.Module
	tail        string
	expectedLog string
	options     Options
}

// expectBundled bundles over a mock file system with a fixed seed and
// compares the output against the prologue the runtime package renders
// for the expected modules, followed by the expected entry tail. "$T"
// in module bodies and the tail stands for the generated table name.
func expectBundled(t *testing.T, args bundled) {
	t.Helper()
	t.Run("", func(t *testing.T) {
		mock := fs.MockFS(args.files)
		log := logger.NewDeferLog()
		options := args.options
		options.EntryPath = args.entryPath
		if options.Rand == nil {
			options.Rand = rand.New(rand.NewSource(1))
		}
		result := Bundle(mock, log, options)

		logText := ""
		for _, msg := range log.Done() {
			logText += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		require.Equal(t, args.expectedLog, logText)

		tableName := runtime.TableName(rand.New(rand.NewSource(1)))
		modules := make([]runtime.Module, len(args.modules))
		for i, module := range args.modules {
			module.Body = strings.ReplaceAll(module.Body, "$T", tableName)
			modules[i] = module
		}
		expected := runtime.Prologue(tableName, modules) + strings.ReplaceAll(args.tail, "$T", tableName)
		if diff := cmp.Diff(expected, string(result.Code)); diff != "" {
			t.Fatalf("unexpected bundle output (-want +got):\n%s", diff)
		}
	})
}

func TestBundleSingleEntry(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "print('hello')\n",
		},
		entryPath: "/src/main.lua",
		tail:      "print('hello')\n",
	})
}

func TestBundleRequire(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "local util = require(\"util\")\nutil.greet()\n",
			"/src/util.lua": "return {\n  greet = function() print('hi') end,\n}\n",
		},
		entryPath: "/src/main.lua",
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/util.lua", Body: "return {\n  greet = function() print('hi') end,\n}\n"},
		},
		tail: "local util = $T[1]()\nutil.greet()\n",
	})
}

func TestBundleRequireForms(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "local a = require \"util\"\n" +
				"local b = require('util')\n" +
				"local c = require [[util]]\n" +
				"local d = require ( [=[util]=] )\n" +
				"local e = require\n\t'util'\n",
			"/src/util.lua": "return 1\n",
		},
		entryPath: "/src/main.lua",
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/util.lua", Body: "return 1\n"},
		},
		tail: "local a = $T[1]()\n" +
			"local b = $T[1]()\n" +
			"local c = $T[1]()\n" +
			"local d = $T[1]()\n" +
			"local e = $T[1]()\n",
	})
}

func TestBundleSharedSlot(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "local a = require 'util'\nlocal b = require 'util'\nlocal c = require 'util'\n",
			"/src/util.lua": "return {}\n",
		},
		entryPath: "/src/main.lua",
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/util.lua", Body: "return {}\n"},
		},
		tail: "local a = $T[1]()\nlocal b = $T[1]()\nlocal c = $T[1]()\n",
	})
}

func TestBundleCycle(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "require 'a'\n",
			"/src/a.lua":    "local b = require 'b'\nreturn { name = 'a', other = b }\n",
			"/src/b.lua":    "local a = require 'a'\nreturn { name = 'b', other = a }\n",
		},
		entryPath: "/src/main.lua",
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/a.lua", Body: "local b = $T[2]()\nreturn { name = 'a', other = b }\n"},
			{Slot: 2, PrettyPath: "src/b.lua", Body: "local a = $T[1]()\nreturn { name = 'b', other = a }\n"},
		},
		tail: "$T[1]()\n",
	})
}

func TestBundleRequireEntry(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "local lib = require 'lib'\nreturn { main = true, lib = lib }\n",
			"/src/lib.lua":  "local main = require 'main'\nreturn { fromEntry = main }\n",
		},
		entryPath: "/src/main.lua",
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/lib.lua", Body: "local main = $T[2]()\nreturn { fromEntry = main }\n"},
			{Slot: 2, PrettyPath: "src/main.lua", Body: "local lib = $T[1]()\nreturn { main = true, lib = lib }\n"},
		},
		tail: "local lib = $T[1]()\nreturn { main = true, lib = lib }\n",
	})
}

func TestBundleIgnoredRequires(t *testing.T) {
	contents := "-- require 'util'\n" +
		"--[[ require 'util' ]]\n" +
		"local s = \"require 'util'\"\n" +
		"local l = [[require 'util']]\n" +
		"myrequire 'util'\n" +
		"requires('util')\n"
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": contents,
			"/src/util.lua": "return 1\n",
		},
		entryPath: "/src/main.lua",
		tail:      contents,
	})
}

func TestBundleUnresolvedRequire(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "local socket = require('socket')\nprint(socket)\n",
		},
		entryPath: "/src/main.lua",
		tail:      "local socket = require('socket')\nprint(socket)\n",
	})
}

func TestDefineEntryOnly(t *testing.T) {
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "print(VERSION)\nrequire 'util'\n",
			"/src/util.lua": "print(VERSION)\n",
		},
		entryPath: "/src/main.lua",
		options: Options{
			Defines: []Define{{Find: "VERSION", Replace: "'1.2.3'"}},
		},
		modules: []runtime.Module{
			{Slot: 1, PrettyPath: "src/util.lua", Body: "print(VERSION)\n"},
		},
		tail: "print('1.2.3')\n$T[1]()\n",
	})

	// Defines cascade in the order given
	expectBundled(t, bundled{
		files: map[string]string{
			"/src/main.lua": "print(A, B)\n",
		},
		entryPath: "/src/main.lua",
		options: Options{
			Defines: []Define{{Find: "A", Replace: "B"}, {Find: "B", Replace: "C"}},
		},
		tail: "print(C, C)\n",
	})
}

type unreadableFS struct {
	fs.FS
	path string
}

func (f *unreadableFS) ReadFile(path string) (string, bool) {
	if path == f.path {
		return "", false
	}
	return f.FS.ReadFile(path)
}

func TestBundleUnreadableModule(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/main.lua": "local util = require 'util'\nprint(util)\n",
		"/src/util.lua": "return 1\n",
	})
	log := logger.NewDeferLog()
	result := Bundle(&unreadableFS{FS: mock, path: "/src/util.lua"}, log, Options{
		EntryPath: "/src/main.lua",
		Rand:      rand.New(rand.NewSource(1)),
	})

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Warning, msgs[0].Kind)
	require.Equal(t, "Could not read from file: src/util.lua", msgs[0].Text)
	require.Equal(t, "src/main.lua", msgs[0].Location.File)

	tableName := runtime.TableName(rand.New(rand.NewSource(1)))
	expected := runtime.Prologue(tableName, []runtime.Module{
		{Slot: 1, PrettyPath: "src/util.lua", Unreadable: true},
	}) + "local util = " + tableName + "[1]()\nprint(util)\n"
	require.Equal(t, expected, string(result.Code))
}

func TestBundleEntryUnreadable(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/other.lua": "return 1\n",
	})
	log := logger.NewDeferLog()
	result := Bundle(mock, log, Options{
		EntryPath: "/src/main.lua",
		Rand:      rand.New(rand.NewSource(1)),
	})

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Error, msgs[0].Kind)
	require.Equal(t, "Could not read from file: /src/main.lua", msgs[0].Text)
	require.Empty(t, result.Code)
}

func TestBundleDeterminism(t *testing.T) {
	files := map[string]string{
		"/src/main.lua": "local util = require 'util'\nutil.go()\n",
		"/src/util.lua": "return { go = function() end }\n",
	}

	bundle := func(seed int64) string {
		log := logger.NewDeferLog()
		result := Bundle(fs.MockFS(files), log, Options{
			EntryPath: "/src/main.lua",
			Rand:      rand.New(rand.NewSource(seed)),
		})
		require.False(t, log.HasErrors())
		return string(result.Code)
	}

	first := bundle(42)
	require.Equal(t, first, bundle(42))
	require.NotEqual(t, first, bundle(7))
}

func TestBundleMinifyWhitespace(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/main.lua": "local u = require 'util'\nprint( u )\n",
		"/src/util.lua": "return 2\n",
	})
	log := logger.NewDeferLog()
	result := Bundle(mock, log, Options{
		EntryPath:        "/src/main.lua",
		MinifyWhitespace: true,
		Rand:             rand.New(rand.NewSource(1)),
	})
	require.False(t, log.HasErrors())

	tableName := runtime.TableName(rand.New(rand.NewSource(1)))
	expected := strings.ReplaceAll(
		"local $T={};local $Tb={};local $Ts={};"+
			"$Tb[1]=function(...)return 2;end;"+
			"$T[1]=function()local s=$Ts[1];if s==nil then $Ts[1]=false;s={$Tb[1]()};$Ts[1]=s;"+
			"elseif s==false then return nil;end;return s[1];end;"+
			"local u=$T[1]();print(u);",
		"$T", tableName)
	require.Equal(t, expected, string(result.Code))
}

func TestBundleMangleAuto(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/main.lua": "local t = {}\nt.secret = 1\nprint(t.secret)\n",
	})
	log := logger.NewDeferLog()
	result := Bundle(mock, log, Options{
		EntryPath:  "/src/main.lua",
		MangleMode: MangleAuto,
		Outfile:    "out.lua",
		Metafile:   true,
		Rand:       rand.New(rand.NewSource(1)),
	})
	require.False(t, log.HasErrors())
	require.Equal(t, map[string]string{"secret": "a"}, result.NameMap)

	tableName := runtime.TableName(rand.New(rand.NewSource(1)))
	expected := strings.ReplaceAll(
		"local $T = {}\nlocal $Tb = {}\nlocal $Ts = {}\n"+
			"local t = {}\nt.a = 1\nprint(t.a)\n",
		"$T", tableName)
	require.Equal(t, expected, string(result.Code))

	// The mangle report rides along in the metafile
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Metafile), &data))
	nameMap := data["nameMap"].(map[string]interface{})
	require.Equal(t, "a", nameMap["secret"])
}

func TestBundleMetafile(t *testing.T) {
	entryContents := "local util = require 'util'\nlocal heavy = require 'socket'\nprint(util, heavy)\n"
	utilContents := "return 7\n"
	mock := fs.MockFS(map[string]string{
		"/src/main.lua": entryContents,
		"/src/util.lua": utilContents,
	})
	log := logger.NewDeferLog()
	result := Bundle(mock, log, Options{
		EntryPath: "/src/main.lua",
		Outfile:   "out.lua",
		Metafile:  true,
		Rand:      rand.New(rand.NewSource(1)),
	})
	require.False(t, log.HasErrors())

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Metafile), &data))
	require.Equal(t, "src/main.lua", data["entry"])

	output := data["output"].(map[string]interface{})
	require.Equal(t, "out.lua", output["path"])
	require.Equal(t, float64(len(result.Code)), output["bytes"])

	modules := data["modules"].([]interface{})
	require.Len(t, modules, 2)

	entry := modules[0].(map[string]interface{})
	require.Equal(t, "src/main.lua", entry["path"])
	require.Nil(t, entry["slot"])
	require.Equal(t, float64(len(entryContents)), entry["bytes"])
	requires := entry["requires"].([]interface{})
	require.Len(t, requires, 2)
	first := requires[0].(map[string]interface{})
	require.Equal(t, "util", first["reference"])
	require.Equal(t, "src/util.lua", first["resolved"])
	second := requires[1].(map[string]interface{})
	require.Equal(t, "socket", second["reference"])
	require.Nil(t, second["resolved"])

	util := modules[1].(map[string]interface{})
	require.Equal(t, "src/util.lua", util["path"])
	require.Equal(t, float64(1), util["slot"])
	require.Equal(t, float64(len(utilContents)), util["bytes"])
	require.Empty(t, util["requires"])
}
