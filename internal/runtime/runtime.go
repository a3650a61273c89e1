package runtime

// Builds the text that precedes the entry module's body in a bundle: the
// runtime module table plus one lazy initializer per discovered module.
// Call sites rewritten to TABLE[n]() go through the initializer, which
// tracks an explicit per-slot state in a side table:
//
//   nil    the slot has never been called
//   false  the slot is currently running its body
//   table  the body has finished and the table holds its result
//
// A cyclic require re-enters a slot while it is still false and gets nil
// back, the same value an uninitialized module would produce. The body
// itself runs at most once no matter how many call sites exist.
//
// Module bodies are wrapped in vararg functions so top level "..." in a
// module stays legal. The entry module's body is not wrapped; the caller
// appends it after the prologue at chunk level.

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_lexer"
)

type Module struct {
	Slot       int
	PrettyPath string

	// The transformed body text. Ignored when Unreadable is set, in which
	// case the slot keeps a nil entry and calling it raises at run time.
	Body       string
	Unreadable bool
}

// TableName draws a fresh random name for the runtime table, retrying on
// the off chance the draw spells a keyword
func TableName(r *rand.Rand) string {
	for {
		name := lua_ast.RandomTableName(r)
		if _, isKeyword := lua_lexer.Keywords[name]; !isKeyword {
			return name
		}
	}
}

// Prologue renders the table declarations and the per-slot initializers.
// Modules must already be in slot order.
func Prologue(tableName string, modules []Module) string {
	bodies := tableName + "b"
	state := tableName + "s"

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "local %s = {}\n", tableName)
	fmt.Fprintf(&sb, "local %s = {}\n", bodies)
	fmt.Fprintf(&sb, "local %s = {}\n", state)

	for _, module := range modules {
		if module.Unreadable {
			continue
		}

		fmt.Fprintf(&sb, "%s[%d] = function(...)\n", bodies, module.Slot)
		if module.PrettyPath != "" {
			fmt.Fprintf(&sb, "-- %s\n", module.PrettyPath)
		}
		sb.WriteString(module.Body)
		if !strings.HasSuffix(module.Body, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("end\n")

		fmt.Fprintf(&sb, "%s[%d] = function()\n", tableName, module.Slot)
		fmt.Fprintf(&sb, "  local s = %s[%d]\n", state, module.Slot)
		sb.WriteString("  if s == nil then\n")
		fmt.Fprintf(&sb, "    %s[%d] = false\n", state, module.Slot)
		fmt.Fprintf(&sb, "    s = { %s[%d]() }\n", bodies, module.Slot)
		fmt.Fprintf(&sb, "    %s[%d] = s\n", state, module.Slot)
		sb.WriteString("  elseif s == false then\n")
		sb.WriteString("    return nil\n")
		sb.WriteString("  end\n")
		sb.WriteString("  return s[1]\n")
		sb.WriteString("end\n")
	}

	return sb.String()
}
