// Package funcs holds the function-signature environment consulted while
// checking call expressions. The environment is built once, before analysis
// starts, and is read-only afterwards.
package funcs

import (
	"strings"

	"github.com/example/quartz-lang/compiler/internal/sql/types"
)

// Signature describes how a named function may be called.
type Signature interface {
	// Result yields the call's result tag for the given ordered argument
	// tags, or false when no variant accepts the combination.
	Result(args []types.Tag) (types.Tag, bool)
}

// Overload is one accepted argument-tag combination of a builtin. An
// argument tag of Unknown accepts any actual tag.
type Overload struct {
	Args   []types.Tag
	Result types.Tag
}

// Builtin models a builtin's signature as an explicit partial mapping from
// ordered argument tags to a result tag.
type Builtin struct {
	Overloads []Overload
}

// Result implements Signature. Matching is soft: an Unknown actual argument
// satisfies any expected tag.
func (b Builtin) Result(args []types.Tag) (types.Tag, bool) {
	for _, overload := range b.Overloads {
		if len(overload.Args) != len(args) {
			continue
		}
		matched := true
		for i, want := range overload.Args {
			if !types.Exact(want).Matches(args[i]) {
				matched = false
				break
			}
		}
		if matched {
			return overload.Result, true
		}
	}
	return types.Unknown, false
}

// UserDefined is an arity-only signature: it accepts any call with the
// declared parameter count and always yields Unknown.
type UserDefined struct {
	Arity int
}

// Result implements Signature.
func (u UserDefined) Result(args []types.Tag) (types.Tag, bool) {
	if len(args) != u.Arity {
		return types.Unknown, false
	}
	return types.Unknown, true
}

// Env maps function names (case-insensitively) to their call signatures.
type Env struct {
	sigs map[string]Signature
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{sigs: make(map[string]Signature)}
}

// Register binds a signature to a name, replacing any previous binding.
// Registration must complete before analysis begins.
func (e *Env) Register(name string, sig Signature) {
	e.sigs[strings.ToUpper(name)] = sig
}

// Lookup resolves a function name.
func (e *Env) Lookup(name string) (Signature, bool) {
	sig, ok := e.sigs[strings.ToUpper(name)]
	return sig, ok
}

// Clone copies the environment so callers can extend it without mutating
// the original.
func (e *Env) Clone() *Env {
	out := NewEnv()
	for name, sig := range e.sigs {
		out.sigs[name] = sig
	}
	return out
}

// Builtins returns the registry of builtin function signatures known to the
// target runtime.
func Builtins() *Env {
	env := NewEnv()
	numeric1 := Builtin{Overloads: []Overload{{Args: []types.Tag{types.Numeric}, Result: types.Numeric}}}
	for _, name := range []string{"ABS", "SQRT", "FLOOR", "CEIL", "EXP", "LN"} {
		env.Register(name, numeric1)
	}
	env.Register("ROUND", Builtin{Overloads: []Overload{
		{Args: []types.Tag{types.Numeric}, Result: types.Numeric},
		{Args: []types.Tag{types.Numeric, types.Numeric}, Result: types.Numeric},
	}})
	string1 := Builtin{Overloads: []Overload{{Args: []types.Tag{types.String}, Result: types.String}}}
	env.Register("LOWER", string1)
	env.Register("UPPER", string1)
	env.Register("TRIM", string1)
	env.Register("LENGTH", Builtin{Overloads: []Overload{{Args: []types.Tag{types.String}, Result: types.Numeric}}})
	env.Register("SUBSTR", Builtin{Overloads: []Overload{
		{Args: []types.Tag{types.String, types.Numeric}, Result: types.String},
		{Args: []types.Tag{types.String, types.Numeric, types.Numeric}, Result: types.String},
	}})
	env.Register("CONCAT", Builtin{Overloads: []Overload{{Args: []types.Tag{types.String, types.String}, Result: types.String}}})
	env.Register("COUNT", Builtin{Overloads: []Overload{{Args: []types.Tag{types.Unknown}, Result: types.Numeric}}})
	for _, name := range []string{"SUM", "AVG"} {
		env.Register(name, Builtin{Overloads: []Overload{{Args: []types.Tag{types.Numeric}, Result: types.Numeric}}})
	}
	for _, name := range []string{"MIN", "MAX"} {
		env.Register(name, Builtin{Overloads: []Overload{{Args: []types.Tag{types.Unknown}, Result: types.Unknown}}})
	}
	return env
}
