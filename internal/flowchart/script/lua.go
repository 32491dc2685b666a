package script

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/kode4food/lru"

	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// LuaEnv compiles rule conditions and lesson expressions to Lua and
	// evaluates them against runtime facts, with state pooling
	LuaEnv struct {
		cache     *lru.Cache[*CompiledLua]
		statePool chan *lua.State
	}

	// CompiledLua represents a compiled Lua chunk
	CompiledLua struct {
		bytecode []byte
		source   string
	}
)

const (
	luaCacheSize        = 4096
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaArrayTableIndex  = -3
	luaMapTableIndex    = -3
	luaGlobalTableName  = "_G"
	luaChunkName        = "rule"
	luaFactsLocal       = "local facts = select(1, ...)"
	luaTrue             = "true"
)

var (
	ErrLuaLoad          = errors.New("lua load error")
	ErrLuaExecution     = errors.New("lua execution error")
	ErrUnknownOperator  = errors.New("unknown condition operator")
	ErrUnsupportedValue = errors.New("unsupported condition value")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

var luaOperators = map[string]string{
	api.OpEqual:                "eq",
	api.OpNotEqual:             "neq",
	api.OpInRange:              "inRange",
	api.OpNotInRange:           "notInRange",
	api.OpIs:                   "is",
	api.OpNotIs:                "notIs",
	api.OpContains:             "contains",
	api.OpNotContains:          "notContains",
	api.OpGreaterThanInclusive: "gte",
	api.OpLessThan:             "lt",
}

const luaPrelude = `
local function eq(a, b)
  if a == nil or type(a) == "table" or type(b) == "table" then
    return false
  end
  local na, nb = tonumber(a), tonumber(b)
  if na ~= nil and nb ~= nil then return na == nb end
  return tostring(a) == tostring(b)
end
local function neq(a, b) return not eq(a, b) end
local function inRange(a, r)
  local n = tonumber(a)
  return n ~= nil and n >= r[1] and n <= r[2]
end
local function notInRange(a, r) return not inRange(a, r) end
local function contains(a, b)
  if type(a) == "table" then
    for _, v in ipairs(a) do
      if eq(v, b) then return true end
    end
    return false
  end
  if type(a) == "string" then
    local s, t = string.lower(a), string.lower(tostring(b))
    return string.find(s, t, 1, true) ~= nil
  end
  return false
end
local function notContains(a, b) return not contains(a, b) end
local function is(a, b)
  if type(a) ~= "table" or #a ~= #b then return false end
  for _, v in ipairs(b) do
    if not contains(a, v) then return false end
  end
  return true
end
local function notIs(a, b) return not is(a, b) end
local function gte(a, b)
  local na, nb = tonumber(a), tonumber(b)
  return na ~= nil and nb ~= nil and na >= nb
end
local function lt(a, b) return not gte(a, b) end
`

// NewLuaEnv creates a Lua environment with a compile cache and a state pool
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		cache:     lru.NewCache[*CompiledLua](luaCacheSize),
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// CompileRule compiles the rule's conditions into a predicate over a facts
// table. A rule with no conditions always holds
func (e *LuaEnv) CompileRule(r *api.Rule) (*CompiledLua, error) {
	all, err := conditionsSource(r.Conditions.All, " and ")
	if err != nil {
		return nil, err
	}
	anyOf, err := conditionsSource(r.Conditions.Any, " or ")
	if err != nil {
		return nil, err
	}
	return e.Compile(fmt.Sprintf("return (%s) and (%s)", all, anyOf))
}

// CompileExpression compiles a lesson expression, reporting syntax errors
func (e *LuaEnv) CompileExpression(expr string) (*CompiledLua, error) {
	return e.Compile(fmt.Sprintf("return (%s)", expr))
}

// Compile compiles a Lua body that can read the facts local
func (e *LuaEnv) Compile(body string) (*CompiledLua, error) {
	src := strings.Join([]string{luaFactsLocal, luaPrelude, body}, "\n")
	return e.cache.Get(hashSource(src), func() (*CompiledLua, error) {
		return e.compile(src)
	})
}

// Evaluate runs a compiled predicate against the facts and returns its
// truth value
func (e *LuaEnv) Evaluate(c *CompiledLua, facts map[string]any) (bool, error) {
	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	err := L.Load(bytes.NewReader(c.bytecode), luaChunkName, "b")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	pushLuaMap(L, facts)
	if err := L.ProtectedCall(1, 1, 0); err != nil {
		return false, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	res := L.ToBoolean(-1)
	L.Pop(1)
	return res, nil
}

// Preview returns the rule that fires for the facts: the first enabled
// conditional rule whose conditions hold, else the first enabled default
// rule. Nil is returned when no rule fires
func (e *LuaEnv) Preview(
	rules []*api.Rule, facts map[string]any,
) (*api.Rule, error) {
	var fallback *api.Rule
	for _, r := range rules {
		if r.Disabled {
			continue
		}
		if r.Default {
			if fallback == nil {
				fallback = r
			}
			continue
		}
		c, err := e.CompileRule(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.ID, err)
		}
		ok, err := e.Evaluate(c, facts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.ID, err)
		}
		if ok {
			return r, nil
		}
	}
	return fallback, nil
}

// Source returns the Lua source the chunk was compiled from
func (c *CompiledLua) Source() string {
	return c.source
}

func (e *LuaEnv) compile(src string) (*CompiledLua, error) {
	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	return &CompiledLua{
		bytecode: buf.Bytes(),
		source:   src,
	}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func conditionsSource(conds []*api.Condition, sep string) (string, error) {
	if len(conds) == 0 {
		return luaTrue, nil
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		fn, ok := luaOperators[c.Operator]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownOperator, c.Operator)
		}
		value, err := luaLiteral(c.Value)
		if err != nil {
			return "", err
		}
		parts[i] = fmt.Sprintf("%s(facts[%s], %s)",
			fn, luaString(c.Fact), value,
		)
	}
	return strings.Join(parts, sep), nil
}

func luaLiteral(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "nil", nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedValue, v)
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return luaString(v), nil
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			lit, err := luaLiteral(item)
			if err != nil {
				return "", err
			}
			items[i] = lit
		}
		return "{" + strings.Join(items, ", ") + "}", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

func luaString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"' || ch == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		case ch >= 0x20 && ch < 0x7f:
			sb.WriteByte(ch)
		default:
			fmt.Fprintf(&sb, "\\%03d", ch)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case []int:
		arr := make([]any, len(v))
		for i, n := range v {
			arr[i] = n
		}
		pushLuaArray(L, arr)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaArrayTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaMapTableIndex)
	}
}

func hashSource(src string) string {
	h := sha256.Sum256([]byte(src))
	return hex.EncodeToString(h[:])
}
