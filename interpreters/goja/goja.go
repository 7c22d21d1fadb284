package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Comcast/parley/core"
	"github.com/Comcast/parley/expr"
	"github.com/Comcast/parley/match"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
	"golang.org/x/net/publicsuffix"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// IgnoreExit will prevent the Goja function "exit" from
	// terminating the process. Being able to halt the process
	// from Goja is useful for some tests and utilities.  Maybe.
	IgnoreExit = false
)

// init adds a Interpreter as one of the DefaultInterpreters
func init() {
	core.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements core.Intepreter using Goja, which is a
// Go implementation of ECMAScript 5.1+.
//
// Game authors use it for conditions and responses that the native
// expression language can't express.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// LibraryProvider is a pluggable library provider, which is
	// used instead of DefaultLibraryProvider if not nil.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// CompileLibrary checks that a library compiles.
func (i *Interpreter) CompileLibrary(ctx context.Context, name, src string) (interface{}, error) {
	return goja.Compile(name, src, true)
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// NewHTTPClient makes the client used to fetch libraries.  Its
// cookie jar uses the public suffix list so that a library host
// can't set cookies for a whole TLD.
func NewHTTPClient() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		// Only fails if the options are bad.
		log.Printf("warning: cookiejar: %s", err)
		jar = nil
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 30 * time.Second,
	}
}

// HTTPClient is used by MakeFileLibraryProvider for "http" and
// "https" libraries.
var HTTPClient = NewHTTPClient()

// MakeFileLibraryProvider makes a provider that supports (barely)
// names that are URLs with protocols of "file", "http", and "https".
// There currently is no additional control when using HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			// ToDo: Maybe protest any ".."?
			filename := parts[1]
			bs, err := ioutil.ReadFile(dir + "/" + filename)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			req = req.WithContext(ctx)
			resp, err := HTTPClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				bs, err := ioutil.ReadAll(resp.Body)
				if err != nil {
					return "", err
				}
				return string(bs), nil
			default:
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks into the given map to try to find "requires" and
// "code" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x := vv["code"]
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad Goja action code")
		return
	}

	switch vv := vv["requires"].(type) {
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			switch vv := x.(type) {
			case string:
				libs = append(libs, vv)
			default:
				err = errors.New("bad library")
				return
			}
		}
	}

	return
}

// AsSource extracts code and required libraries from a source, which
// is either a string or a map with "code" and "requires".
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad Goja source (%T)", src)
		return
	}
}

// Compile prepends any required libraries (with their own
// require() calls inlined) and calls goja.Compile.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	provide := func(ctx context.Context, name string) (string, error) {
		return i.ProvideLibrary(ctx, name)
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		if libSrc, err = InlineRequires(ctx, libSrc, provide); err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	obj, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return obj, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

func asString(o *goja.Runtime, x interface{}) string {
	s, is := export(x).(string)
	if !is {
		protest(o, "not a string")
	}
	return s
}

func asInt(o *goja.Runtime, x interface{}) int {
	switch vv := export(x).(type) {
	case int64:
		return int(vv)
	case int:
		return vv
	case float64:
		return int(vv)
	}
	protest(o, "not a number")
	return 0
}

func asClass(o *goja.Runtime, x interface{}) core.Class {
	switch strings.ToLower(asString(o, x)) {
	case "character", "characters":
		return core.Characters
	case "object", "objects":
		return core.Objects
	}
	protest(o, "class should be 'character' or 'object'")
	return core.Objects
}

// result converts what a program returned into an int, a string, a
// bool, or nil.  Other values are canonicalized.
func result(x interface{}) (interface{}, error) {
	switch vv := x.(type) {
	case nil, string, bool:
		return vv, nil
	case int64:
		return int(vv), nil
	case int:
		return vv, nil
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < math.MaxInt32 {
			return int(vv), nil
		}
		return vv, nil
	default:
		return core.Canonicalize(x)
	}
}

// Exec implements the Interpreter method of the same name.
//
// The following properties are available from the runtime at _.
//
//    get(name): the value of a game variable (or undefined).
//    refs: the reference slots {character,object,number,text}.
//    props: the session's properties.
//    count(class): the number of "character"s or "object"s.
//    entity(class, i): an entity's name, prefix, aliases, seen,
//      gender, room, and reachable.
//    match(pattern, subject): run the command matcher (reference
//      slots aren't touched).
//    eval(expr): evaluate a numeric expression.
//    text(expr): evaluate a string expression.
//
// Some useful utilities:
//
//    gensym(): generate a random string.
//    esc(s): URL query-escape the given string.
//    cronNext(s): the next time for a cron expression.
//    log(x): log x as JSON.
//
// For testing only:
//
//    sleep(ms): sleep for the given number of milliseconds.  For testing.
//    exit(msg): Terminate the process after printing the given message.
//      For testing.
//
// The Testing flag must be set to see sleep().
//
// The program's value (usually from a "return") is the result.
func (i *Interpreter) Exec(ctx context.Context, env *core.Env, src interface{}, compiled interface{}) (interface{}, error) {
	var p *goja.Program
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return nil, err
		}
	}
	var is bool
	if p, is = compiled.(*goja.Program); !is {
		return nil, fmt.Errorf("Goja bad compilation: %T %#v", compiled, compiled)
	}

	if env == nil {
		env = &core.Env{}
	}
	vars := env.Vars
	if vars == nil {
		vars = core.NewVars()
	}
	reg := env.Registry

	o := goja.New()

	_env := map[string]interface{}{
		"ctx": ctx,
	}
	if env.Props == nil {
		_env["props"] = map[string]interface{}{}
	} else {
		props := make(map[string]interface{}, len(env.Props))
		for k, v := range env.Props {
			props[k] = v
		}
		_env["props"] = props
	}

	refs := core.NoRefs()
	if rr, is := vars.(core.RefReader); is {
		refs = rr.References()
	}
	_env["refs"] = map[string]interface{}{
		"character": refs.Character,
		"object":    refs.Object,
		"number":    refs.Number,
		"text":      refs.Text,
	}

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	_env["get"] = func(x interface{}) interface{} {
		v, have := vars.Get(asString(o, x))
		if !have {
			return goja.Undefined()
		}
		if v.Type == core.Integer {
			return v.Int
		}
		return v.Text
	}

	_env["count"] = func(class interface{}) interface{} {
		if reg == nil {
			return 0
		}
		return reg.Count(asClass(o, class))
	}

	_env["entity"] = func(class, n interface{}) interface{} {
		if reg == nil {
			return goja.Null()
		}
		c, idx := asClass(o, class), asInt(o, n)
		e := reg.Entity(c, idx)
		if e == nil {
			return goja.Null()
		}
		return map[string]interface{}{
			"name":      e.Name,
			"prefix":    e.Prefix,
			"aliases":   e.Aliases,
			"seen":      e.Seen,
			"gender":    e.Gender.String(),
			"room":      e.Room,
			"reachable": reg.Reachable(c, idx),
		}
	}

	_env["match"] = func(pattern, subject interface{}) interface{} {
		r, err := match.DefaultMatcher.Match(ctx, asString(o, pattern), asString(o, subject), core.ReadOnly(vars), reg)
		if err != nil {
			protest(o, err.Error())
		}
		return map[string]interface{}{
			"matched":    r.Matched,
			"characters": r.Characters,
			"objects":    r.Objects,
		}
	}

	_env["eval"] = func(x interface{}) interface{} {
		n, err := expr.EvalNumeric(asString(o, x), vars)
		if err != nil {
			protest(o, err.Error())
		}
		return n
	}

	_env["text"] = func(x interface{}) interface{} {
		s, err := expr.EvalString(asString(o, x), vars)
		if err != nil {
			protest(o, err.Error())
		}
		return s
	}

	_env["gensym"] = func() interface{} {
		return core.Gensym(32)
	}

	_env["cronNext"] = func(x interface{}) interface{} {
		c, err := cronexpr.Parse(asString(o, x))
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	_env["esc"] = func(x interface{}) interface{} {
		return url.QueryEscape(asString(o, x))
	}

	if i.Testing {
		_env["exit"] = func(n interface{}, msg interface{}) interface{} {
			s := asString(o, msg)
			ec := asInt(o, n)
			log.Println(s)
			if !IgnoreExit {
				os.Exit(ec)
			}
			return s
		}
	}

	_env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}

		return x
	}

	o.Set("_", _env)

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If this Exec method calls cancel() after RunProgram
		// returns, then we'll never see this
		// InterruptedMessage, which is actually the behavior
		// we want.  In this case, we weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	return result(v.Export())
}
