// Package turbotest provides an in-memory Turbonomic API for tests.
package turbotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/models/api"
)

const sessionCookie = "JSESSIONID"

// Server is a fake platform. Fields may be edited between requests under Lock.
type Server struct {
	sync.Mutex

	Users    map[string]string // username -> password
	Groups   []api.GroupApiDTO
	Entities []api.ServiceEntityApiDTO
	Actions  []api.ActionApiDTO
	Stats    map[string]api.EntityStatsApiDTO // uuid -> stats
	// PageSize caps list responses regardless of the client's limit
	PageSize int
	// FailLogins makes the next n login calls answer 503
	FailLogins int
	// DropWrites makes the next n group writes close the connection without answering
	DropWrites int

	Requests []string // "METHOD path" in arrival order

	router  *chi.Mux
	server  *httptest.Server
	logger  zerolog.Logger
	nextID  int
	session string
}

func NewServer(logger zerolog.Logger) *Server {
	s := &Server{
		Users:  map[string]string{},
		Stats:  map[string]api.EntityStatsApiDTO{},
		logger: logger,
	}

	router := chi.NewRouter()
	router.Use(requestLogger(&s.logger))
	router.Use(middleware.Recoverer)
	router.Use(s.record)

	router.Route("/api/v3", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/groups", s.listGroups)
			r.With(s.dropWrite).Post("/groups", s.createGroup)
			r.With(s.dropWrite).Put("/groups/{uuid}", s.updateGroup)
			r.With(s.dropWrite).Delete("/groups/{uuid}", s.deleteGroup)
			r.Get("/search", s.search)
			r.Get("/entities/{uuid}", s.getEntity)
			r.Get("/entities/{uuid}/actions", s.entityActions)
			r.Get("/markets/{market}/actions", s.marketActions)
			r.Post("/stats", s.stats)
		})
	})

	s.router = router
	s.server = httptest.NewServer(router)
	return s
}

// URL is usable as a client target
func (s *Server) URL() string {
	return s.server.URL
}

func (s *Server) Close() {
	s.server.Close()
}

// Group returns a copy of the group with the given display name
func (s *Server) Group(name string) (api.GroupApiDTO, bool) {
	s.Lock()
	defer s.Unlock()
	for _, g := range s.Groups {
		if g.DisplayName == name {
			return g, true
		}
	}
	return api.GroupApiDTO{}, false
}

// Count returns how many recorded requests equal "METHOD path"
func (s *Server) Count(request string) int {
	s.Lock()
	defer s.Unlock()
	n := 0
	for _, r := range s.Requests {
		if r == request {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		s.Requests = append(s.Requests, r.Method+" "+r.URL.Path)
		s.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()

	if s.FailLogins > 0 {
		s.FailLogins--
		writeError(w, http.StatusServiceUnavailable, "server is starting")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if expected, ok := s.Users[username]; !ok || expected != password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.nextID++
	s.session = fmt.Sprintf("session-%d", s.nextID)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: s.session, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		s.Lock()
		valid := err == nil && s.session != "" && cookie.Value == s.session
		s.Unlock()
		if !valid {
			writeError(w, http.StatusUnauthorized, "session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) dropWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		drop := s.DropWrites > 0
		if drop {
			s.DropWrites--
		}
		s.Unlock()
		if !drop {
			next.ServeHTTP(w, r)
			return
		}

		hijacker, ok := w.(http.Hijacker)
		if !ok {
			writeError(w, http.StatusInternalServerError, "connection cannot be dropped")
			return
		}
		conn, _, err := hijacker.Hijack()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = conn.Close()
	})
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writePage(w, r, s.PageSize, s.Groups)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var input api.GroupApiInputDTO
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	s.nextID++
	group := api.GroupApiDTO{
		UUID:           fmt.Sprintf("group-%d", s.nextID),
		DisplayName:    input.DisplayName,
		ClassName:      "Group",
		GroupType:      input.GroupType,
		IsStatic:       input.IsStatic,
		EntitiesCount:  len(input.MemberUuidList),
		MemberUuidList: input.MemberUuidList,
	}
	s.Groups = append(s.Groups, group)
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var input api.GroupApiInputDTO
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	uuid := chi.URLParam(r, "uuid")
	for i := range s.Groups {
		if s.Groups[i].UUID == uuid {
			s.Groups[i].DisplayName = input.DisplayName
			s.Groups[i].GroupType = input.GroupType
			s.Groups[i].MemberUuidList = input.MemberUuidList
			s.Groups[i].EntitiesCount = len(input.MemberUuidList)
			writeJSON(w, http.StatusOK, s.Groups[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "group not found")
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	uuid := chi.URLParam(r, "uuid")
	for i := range s.Groups {
		if s.Groups[i].UUID == uuid {
			s.Groups = slices.Delete(s.Groups, i, i+1)
			writeJSON(w, http.StatusOK, true)
			return
		}
	}
	writeError(w, http.StatusNotFound, "group not found")
}

// search matches q exactly against display names of groups or entities of the requested class
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	q := r.URL.Query().Get("q")
	types := r.URL.Query().Get("types")

	if types == "Group" {
		var groups []api.GroupApiDTO
		for _, g := range s.Groups {
			if g.DisplayName == q {
				groups = append(groups, g)
			}
		}
		writePage(w, r, s.PageSize, groups)
		return
	}

	var entities []api.ServiceEntityApiDTO
	for _, e := range s.Entities {
		if e.DisplayName == q && (types == "" || e.ClassName == types) {
			entities = append(entities, e)
		}
	}
	writePage(w, r, s.PageSize, entities)
}

func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	uuid := chi.URLParam(r, "uuid")
	for _, e := range s.Entities {
		if e.UUID == uuid {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "entity not found")
}

func (s *Server) entityActions(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	uuid := chi.URLParam(r, "uuid")
	var actions []api.ActionApiDTO
	for _, a := range s.Actions {
		if a.Target.UUID == uuid {
			actions = append(actions, a)
		}
	}
	writePage(w, r, s.PageSize, actions)
}

func (s *Server) marketActions(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writePage(w, r, s.PageSize, s.Actions)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	var input api.StatScopesApiInputDTO
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	var stats []api.EntityStatsApiDTO
	for _, uuid := range input.Scopes {
		if st, ok := s.Stats[uuid]; ok {
			stats = append(stats, st)
		}
	}
	writePage(w, r, s.PageSize, stats)
}

// writePage serves items[cursor:cursor+limit] and sets X-Next-Cursor when more remain
func writePage[T any](w http.ResponseWriter, r *http.Request, pageSize int, items []T) {
	limit := len(items)
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l < limit {
		limit = l
	}
	if pageSize > 0 && pageSize < limit {
		limit = pageSize
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
	if start > len(items) {
		start = len(items)
	}
	end := min(start+limit, len(items))
	if end < len(items) {
		w.Header().Set("X-Next-Cursor", strconv.Itoa(end))
	}

	page := items[start:end]
	if page == nil {
		page = []T{}
	}
	writeJSON(w, http.StatusOK, page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorApiDTO{Type: status, Message: message})
}
