// Package odootest provides an in-process fake of the Odoo JSON-RPC
// endpoint for tests. It speaks just enough of the protocol for the client
// and the importers: common.login, common.version and object.execute_kw
// dispatched to per-model handlers.
package odootest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Call records one execute_kw invocation.
type Call struct {
	Model  string
	Method string
	Args   []any
	KW     map[string]any
}

// Handler serves one model method.
type Handler func(args []any, kw map[string]any) (any, error)

// Fault makes a handler fail with an Odoo-style server error.
type Fault struct {
	Name    string
	Message string
}

func (f *Fault) Error() string { return f.Name + ": " + f.Message }

// Server is a fake Odoo JSON-RPC server.
type Server struct {
	*httptest.Server

	// UID returned by common.login. Defaults to 2 (admin).
	UID int64
	// RejectLogin makes common.login return false.
	RejectLogin bool

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

// New starts a fake server. The caller owns Close.
func New() *Server {
	s := &Server{
		UID:      2,
		handlers: make(map[string]Handler),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers a handler for model/method execute_kw calls.
func (s *Server) Handle(model, method string, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[model+"."+method] = fn
}

// Calls returns all recorded execute_kw calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns recorded calls for one model/method pair.
func (s *Server) CallsTo(model, method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Model == model && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type request struct {
	Params struct {
		Service string `json:"service"`
		Method  string `json:"method"`
		Args    []any  `json:"args"`
	} `json:"params"`
	ID any `json:"id"`
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var result any
	var fault *Fault

	switch req.Params.Service {
	case "common":
		switch req.Params.Method {
		case "version":
			result = map[string]any{"server_version": "17.0", "protocol_version": 1}
		case "login":
			if s.RejectLogin {
				result = false
			} else {
				result = s.UID
			}
		default:
			fault = &Fault{Name: "builtins.AttributeError", Message: "unknown common method " + req.Params.Method}
		}
	case "object":
		result, fault = s.executeKw(req.Params.Args)
	default:
		fault = &Fault{Name: "builtins.AttributeError", Message: "unknown service " + req.Params.Service}
	}

	writeResponse(w, req.ID, result, fault)
}

func (s *Server) executeKw(args []any) (any, *Fault) {
	// args: db, uid, password, model, method, args, kwargs
	if len(args) < 6 {
		return nil, &Fault{Name: "builtins.TypeError", Message: "execute_kw needs at least 6 args"}
	}
	model, _ := args[3].(string)
	method, _ := args[4].(string)
	callArgs, _ := args[5].([]any)
	var kw map[string]any
	if len(args) > 6 {
		kw, _ = args[6].(map[string]any)
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Model: model, Method: method, Args: callArgs, KW: kw})
	fn := s.handlers[model+"."+method]
	s.mu.Unlock()

	if fn == nil {
		return nil, &Fault{Name: "builtins.KeyError", Message: model + " has no handler for " + method}
	}
	result, err := fn(callArgs, kw)
	if err != nil {
		if f, ok := err.(*Fault); ok {
			return nil, f
		}
		return nil, &Fault{Name: "odoo.exceptions.UserError", Message: err.Error()}
	}
	return result, nil
}

func writeResponse(w http.ResponseWriter, id, result any, fault *Fault) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"jsonrpc": "2.0", "id": id}
	if fault != nil {
		body["error"] = map[string]any{
			"code":    200,
			"message": "Odoo Server Error",
			"data": map[string]any{
				"name":    fault.Name,
				"message": fault.Message,
			},
		}
	} else {
		body["result"] = result
	}
	_ = json.NewEncoder(w).Encode(body)
}

// ContextLang pulls context.lang out of execute_kw kwargs, or "".
func ContextLang(kw map[string]any) string {
	ctx, _ := kw["context"].(map[string]any)
	lang, _ := ctx["lang"].(string)
	return lang
}
