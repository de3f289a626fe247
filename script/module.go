package script

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/wesleyorama2/minigun/http"
)

// newModule builds the minigun global:
//
//	minigun.get(url, options?)     minigun.post(url, options?)
//	minigun.put(url, options?)     minigun.delete(url, options?)
//	minigun.patch(url, options?)   minigun.request(method, url, options?)
//
// options is {headers, body, read_body}. The result is
// {status_code, headers, body} with body null when it was not read.
// Passing options that are not an object throws a TypeError.
func (r *Runtime) newModule() *goja.Object {
	module := r.vm.NewObject()
	for _, method := range http.Methods {
		module.Set(strings.ToLower(method.String()), r.verbFunc(method))
	}
	module.Set("request", func(call goja.FunctionCall) goja.Value {
		method, err := http.ParseMethod(call.Argument(0).String())
		if err != nil {
			panic(r.throw(err))
		}
		return r.do(method, call.Argument(1), call.Argument(2))
	})
	return module
}

func (r *Runtime) verbFunc(method http.Method) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return r.do(method, call.Argument(0), call.Argument(1))
	}
}

func (r *Runtime) do(method http.Method, urlArg, optsArg goja.Value) goja.Value {
	if isMissing(urlArg) {
		panic(r.throw(&http.Error{Kind: http.InvalidURL, Method: method.String(), Err: errors.New("url is required")}))
	}

	raw, err := r.exportOptions(optsArg)
	if err != nil {
		panic(r.throw(err))
	}
	opts, err := http.DecodeOptions(raw)
	if err != nil {
		panic(r.throw(err))
	}

	resp, err := r.client.ExecuteContext(r.ctx, method, urlArg.String(), opts)
	if err != nil {
		panic(r.throw(err))
	}
	return r.responseObject(resp)
}

// exportOptions turns a JS options object into the loosely typed map
// DecodeOptions validates. Header objects are flattened to [name, value]
// pairs in property order so insertion order survives.
func (r *Runtime) exportOptions(v goja.Value) (map[string]any, error) {
	if isMissing(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("options must be an object, got %s", v.ExportType())
	}

	raw := make(map[string]any)
	if headers := obj.Get(http.KeyHeaders); !isMissing(headers) {
		exported, err := r.exportHeaders(headers)
		if err != nil {
			return nil, err
		}
		raw[http.KeyHeaders] = exported
	}
	if body := obj.Get(http.KeyBody); body != nil && !goja.IsUndefined(body) {
		raw[http.KeyBody] = body.Export()
	}
	if readBody := obj.Get(http.KeyReadBody); readBody != nil && !goja.IsUndefined(readBody) {
		raw[http.KeyReadBody] = readBody.ToBoolean()
	}
	return raw, nil
}

// exportHeaders accepts a plain object, an array of pairs or a Map. Any other
// object, such as a function or a Date, is an InvalidHeaderEntry.
func (r *Runtime) exportHeaders(v goja.Value) (any, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export(), nil
	}
	switch obj.ClassName() {
	case "Object":
		keys := obj.Keys()
		pairs := make([]any, 0, len(keys))
		for _, name := range keys {
			pairs = append(pairs, []any{name, obj.Get(name).Export()})
		}
		return pairs, nil
	case "Array":
		return obj.Export(), nil
	case "Map":
		entries, err := r.arrayFrom(obj)
		if err != nil {
			return nil, err
		}
		return entries.Export(), nil
	default:
		return nil, &http.Error{
			Kind: http.InvalidHeaderEntry,
			Err:  fmt.Errorf("expected an object, an array of [name, value] pairs or a Map, got %s", obj.ClassName()),
		}
	}
}

// arrayFrom turns an iterable into an array of its entries.
func (r *Runtime) arrayFrom(iterable *goja.Object) (goja.Value, error) {
	from, ok := goja.AssertFunction(r.vm.Get("Array").ToObject(r.vm).Get("from"))
	if !ok {
		return nil, errors.New("Array.from is not available")
	}
	return from(goja.Undefined(), iterable)
}

func (r *Runtime) responseObject(resp *http.Response) *goja.Object {
	headers := r.vm.NewObject()
	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		headers.Set(name, resp.Headers[name])
	}

	obj := r.vm.NewObject()
	obj.Set("status_code", resp.StatusCode)
	obj.Set("headers", headers)
	if resp.HasBody() {
		obj.Set("body", string(resp.Body))
	} else {
		obj.Set("body", goja.Null())
	}

	obj.Set("ok", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(resp.OK())
	})
	obj.Set("json", func(goja.FunctionCall) goja.Value {
		if !resp.HasBody() {
			return goja.Null()
		}
		return r.parseJSON(string(resp.Body))
	})
	return obj
}

func (r *Runtime) parseJSON(s string) goja.Value {
	parse, ok := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("parse"))
	if !ok {
		panic(r.vm.NewTypeError("JSON.parse is not available"))
	}
	v, err := parse(goja.Undefined(), r.vm.ToValue(s))
	if err != nil {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			panic(ex.Value())
		}
		panic(r.vm.NewGoError(err))
	}
	return v
}

// throw converts err into a JS Error whose name is the error kind, e.g.
// InvalidUrl or RequestFailed. Errors without a kind become TypeErrors.
func (r *Runtime) throw(err error) goja.Value {
	kind := http.KindOf(err)
	if kind == http.KindUnknown {
		return r.vm.NewTypeError(err.Error())
	}
	obj, cerr := r.vm.New(r.vm.Get("Error"), r.vm.ToValue(err.Error()))
	if cerr != nil {
		return r.vm.NewGoError(err)
	}
	obj.Set("name", kind.String())
	obj.Set("kind", kind.String())
	return obj
}

func isMissing(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
