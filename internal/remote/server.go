package remote

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"expense-cli/internal/logging"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/store"
)

// CodeFailed is returned for commands configured to fail.
const CodeFailed = 666

type ServerConfig struct {
	// Tags seeds the server's tag lists, keyed by policy id.
	Tags map[string]model.PolicyTagLists
	// Fail lists command names that are answered with CodeFailed.
	Fail   []string
	Logger *slog.Logger
}

// Server is an in-memory development API. It keeps tag lists so a read after a
// write returns what the write did.
type Server struct {
	mu   sync.Mutex
	tags map[string]model.PolicyTagLists
	fail map[string]bool
	log  *slog.Logger
	seen []string
}

func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		tags: map[string]model.PolicyTagLists{},
		fail: map[string]bool{},
		log:  logging.OrDiscard(cfg.Logger),
	}
	for id, lists := range cfg.Tags {
		s.tags[id] = lists
	}
	for _, name := range cfg.Fail {
		if name = strings.TrimSpace(name); name != "" {
			s.fail[name] = true
		}
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/{command}", s.handleCommand).Methods(http.MethodPost)
	return r
}

// Commands returns the command names received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["command"]
	var req wireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, Response{JSONCode: http.StatusBadRequest, Message: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, name)
	s.log.Debug("remote command", "command", name, "id", req.ID)

	if s.fail[name] {
		writeResponse(w, Response{JSONCode: CodeFailed, Message: "command failed: " + name})
		return
	}

	policyID, _ := req.Params["policyID"].(string)
	switch name {
	case mutate.CommandOpenTagsPage:
		lists := s.tags[policyID]
		if lists == nil {
			lists = model.PolicyTagLists{}
		}
		writeResponse(w, Response{JSONCode: CodeOK, OnyxData: []store.Update{
			store.SetUpdate(store.PolicyTagsKey(policyID), lists),
		}})
	case mutate.CommandSetTagsEnabled:
		s.setEnabled(policyID, req.Params)
		writeResponse(w, Response{JSONCode: CodeOK})
	case mutate.CommandSetTagsRequired:
		s.setRequired(policyID, req.Params)
		writeResponse(w, Response{JSONCode: CodeOK})
	case mutate.CommandDeleteTags:
		s.deleteTags(policyID, req.Params)
		writeResponse(w, Response{JSONCode: CodeOK})
	case mutate.CommandRequestMoney:
		writeResponse(w, Response{JSONCode: CodeOK})
	default:
		writeResponse(w, Response{JSONCode: http.StatusNotFound, Message: "unknown command: " + name})
	}
}

func (s *Server) listAt(policyID string, params map[string]any) (string, model.PolicyTagList, bool) {
	idx := 0
	if f, ok := params["tagListIndex"].(float64); ok {
		idx = int(f)
	}
	lists := s.tags[policyID]
	names := make([]string, 0, len(lists))
	for n := range lists {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if lists[n].OrderWeight == idx {
			return n, lists[n], true
		}
	}
	return "", model.PolicyTagList{}, false
}

func (s *Server) setEnabled(policyID string, params map[string]any) {
	name, l, ok := s.listAt(policyID, params)
	if !ok {
		return
	}
	tags, _ := params["tags"].([]any)
	for _, raw := range tags {
		t, _ := raw.(map[string]any)
		tagName, _ := t["name"].(string)
		enabled, _ := t["enabled"].(bool)
		if tag, ok := l.Tags[tagName]; ok {
			tag.Enabled = enabled
			l.Tags[tagName] = tag
		}
	}
	s.tags[policyID][name] = l
}

func (s *Server) setRequired(policyID string, params map[string]any) {
	name, l, ok := s.listAt(policyID, params)
	if !ok {
		return
	}
	l.Required, _ = params["requireTagList"].(bool)
	s.tags[policyID][name] = l
}

func (s *Server) deleteTags(policyID string, params map[string]any) {
	name, l, ok := s.listAt(policyID, params)
	if !ok {
		return
	}
	tags, _ := params["tags"].([]any)
	for _, raw := range tags {
		if tagName, ok := raw.(string); ok {
			delete(l.Tags, tagName)
		}
	}
	s.tags[policyID][name] = l
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
