// Package fakeapi is an in-memory household API served over httptest, used by
// the session and store tests.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/naveenspark/homedash/pkg/domain"
)

const cookieName = "connect.sid"

// Seeded accounts. Both use Password.
const (
	UserAna  = "u1"
	UserBen  = "u2"
	Password = "secret"
)

// Server is a fake API. Seed it with the Add helpers and inspect it with
// Calls and the snapshot accessors.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       []domain.User
	passwords   map[string]string
	sessions    map[string]string // cookie value -> user id
	tasks       []domain.Task
	items       []domain.ShoppingItem
	ingredients []domain.DictionaryEntry
	locations   []domain.DictionaryEntry
	recipes     []domain.Recipe

	calls     map[string]int
	failures  map[string]int
	failItems map[string]bool
}

// New starts a fake API with two users. The caller must Close it.
func New() *Server {
	s := &Server{
		users: []domain.User{
			{ID: UserAna, Username: "ana"},
			{ID: UserBen, Username: "ben"},
		},
		passwords: map[string]string{"ana": Password, "ben": Password},
		sessions:  make(map[string]string),
		calls:     make(map[string]int),
		failures:  make(map[string]int),
		failItems: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/check-auth", s.checkAuth)
	mux.HandleFunc("POST /users/login", s.login)
	mux.HandleFunc("GET /users/logout", s.logout)
	mux.HandleFunc("GET /users", s.authed(s.listUsers))
	mux.HandleFunc("PATCH /users/{id}/notifications-token", s.authed(s.setToken))

	mux.HandleFunc("GET /tasks", s.authed(s.listTasks))
	mux.HandleFunc("GET /tasks/user/{id}", s.authed(s.listUserTasks))
	mux.HandleFunc("PUT /task", s.authed(s.createTask))
	mux.HandleFunc("PATCH /task/{id}", s.authed(s.patchTask))
	mux.HandleFunc("DELETE /task/{id}", s.authed(s.deleteTask))

	mux.HandleFunc("GET /shopping/items", s.authed(s.listItems))
	mux.HandleFunc("PUT /shopping/item", s.authed(s.createItem))
	mux.HandleFunc("PATCH /shopping/item/{id}", s.authed(s.patchItem))
	mux.HandleFunc("DELETE /shopping/item/{id}", s.authed(s.deleteItem))

	mux.HandleFunc("GET /shopping/ingredients", s.authed(s.listDict(&s.ingredients)))
	mux.HandleFunc("PUT /shopping/ingredient", s.authed(s.createDict(&s.ingredients)))
	mux.HandleFunc("DELETE /shopping/ingredient/{id}", s.authed(s.deleteDict(&s.ingredients)))
	mux.HandleFunc("GET /shopping/locations", s.authed(s.listDict(&s.locations)))
	mux.HandleFunc("PUT /shopping/location", s.authed(s.createDict(&s.locations)))
	mux.HandleFunc("DELETE /shopping/location/{id}", s.authed(s.deleteDict(&s.locations)))

	mux.HandleFunc("GET /recipes", s.authed(s.listRecipes))
	mux.HandleFunc("PUT /recipe", s.authed(s.createRecipe))
	mux.HandleFunc("PATCH /recipe/{id}", s.authed(s.patchRecipe))
	mux.HandleFunc("DELETE /recipe/{id}", s.authed(s.deleteRecipe))

	s.Server = httptest.NewServer(s.count(mux))
	return s
}

// Calls returns how many requests matched pattern, e.g. "PUT /shopping/ingredient".
func (s *Server) Calls(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[pattern]
}

// Fail makes every request matching pattern answer with status.
func (s *Server) Fail(pattern string, status int) {
	s.mu.Lock()
	s.failures[pattern] = status
	s.mu.Unlock()
}

// FailItemsFor makes shopping item creation fail for the given ingredient id.
func (s *Server) FailItemsFor(ingredientID string) {
	s.mu.Lock()
	s.failItems[ingredientID] = true
	s.mu.Unlock()
}

// ExpireSessions drops every server-side session, so the next call is a 401.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	clear(s.sessions)
	s.mu.Unlock()
}

// AddTask stores t, assigning an id when it has none.
func (s *Server) AddTask(t domain.Task) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tasks = append(s.tasks, t)
	return t.ID
}

// AddIngredient stores an ingredient and returns its id.
func (s *Server) AddIngredient(title string) string {
	return s.addEntry(&s.ingredients, title)
}

// AddLocation stores a location and returns its id.
func (s *Server) AddLocation(title string) string {
	return s.addEntry(&s.locations, title)
}

// AddRecipe stores r, assigning an id when it has none.
func (s *Server) AddRecipe(r domain.Recipe) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.recipes = append(s.recipes, r)
	return r.ID
}

// Items returns a copy of the shopping list.
func (s *Server) Items() []domain.ShoppingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ShoppingItem(nil), s.items...)
}

// Ingredients returns a copy of the ingredient dictionary.
func (s *Server) Ingredients() []domain.DictionaryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DictionaryEntry(nil), s.ingredients...)
}

// User returns the stored user with the given id.
func (s *Server) User(id string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.userByID(id)
	return u
}

func (s *Server) addEntry(dict *[]domain.DictionaryEntry, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.DictionaryEntry{ID: uuid.NewString(), Title: title}
	*dict = append(*dict, e)
	return e.ID
}

// count records the matched pattern and applies injected failures.
func (s *Server) count(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		s.mu.Lock()
		s.calls[pattern]++
		status := s.failures[pattern]
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.sessionUser(r)
		if !ok {
			// Deliberately not JSON: clients must not read a 401 body.
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized <html>")) //nolint:errcheck
			return
		}
		h(w, r, userID)
	}
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[c.Value]
	return id, ok
}

func (s *Server) userByID(id string) (domain.User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	s.mu.Lock()
	u, _ := s.userByID(userID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "user": u})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[req.Username]; !ok || pw != req.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	for _, u := range s.users {
		if u.Username == req.Username {
			sid := uuid.NewString()
			s.sessions[sid] = u.ID
			http.SetCookie(w, &http.Cookie{Name: cookieName, Value: sid, Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	w.WriteHeader(http.StatusUnauthorized)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.users)
}

func (s *Server) setToken(w http.ResponseWriter, r *http.Request, _ string) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].PushToken = req.Token
			writeJSON(w, http.StatusOK, s.users[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "user not found")
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, _ string) {
	showDone, _ := strconv.ParseBool(r.URL.Query().Get("showDone"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Task{}
	for _, t := range s.tasks {
		if t.Done && !showDone {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listUserTasks(w http.ResponseWriter, r *http.Request, _ string) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Task{}
	for _, t := range s.tasks {
		if t.OwnedBy(id) {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, _ string) {
	var d domain.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       d.Title,
		Description: d.Description,
		Owner:       d.Owner,
		TargetDate:  d.TargetDate,
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) patchTask(w http.ResponseWriter, r *http.Request, _ string) {
	var p domain.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.ID != id {
			continue
		}
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Owner != nil {
			t.Owner = p.Owner
		}
		if p.TargetDate != nil {
			t.TargetDate = *p.TargetDate
		}
		if p.Done != nil {
			t.Done = *p.Done
		}
		writeJSON(w, http.StatusOK, *t)
		return
	}
	writeError(w, http.StatusNotFound, "task not found")
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, _ string) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "task not found")
}

func (s *Server) listItems(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.ShoppingItem{}, s.items...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request, _ string) {
	var d domain.ShoppingDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failItems[d.Ingredient] {
		writeError(w, http.StatusInternalServerError, "could not save item")
		return
	}
	it := domain.ShoppingItem{
		ID:         uuid.NewString(),
		Ingredient: d.Ingredient,
		Quantity:   d.Quantity,
		Unit:       d.Unit,
		Location:   d.Location,
	}
	s.items = append(s.items, it)
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) patchItem(w http.ResponseWriter, r *http.Request, _ string) {
	var p domain.ShoppingPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		it := &s.items[i]
		if it.ID != id {
			continue
		}
		if p.Ingredient != nil {
			it.Ingredient = *p.Ingredient
		}
		if p.Quantity != nil {
			it.Quantity = *p.Quantity
		}
		if p.Unit != nil {
			it.Unit = *p.Unit
		}
		if p.Location != nil {
			it.Location = *p.Location
		}
		writeJSON(w, http.StatusOK, *it)
		return
	}
	writeError(w, http.StatusNotFound, "item not found")
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request, _ string) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "item not found")
}

func (s *Server) listDict(dict *[]domain.DictionaryEntry) authedHandler {
	return func(w http.ResponseWriter, _ *http.Request, _ string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, append([]domain.DictionaryEntry{}, *dict...))
	}
}

func (s *Server) createDict(dict *[]domain.DictionaryEntry) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, _ string) {
		var req struct {
			Item struct {
				Title string `json:"title"`
			} `json:"item"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Item.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		// No uniqueness check: duplicates are accepted like the real API.
		id := s.addEntry(dict, req.Item.Title)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "insertedId": id})
	}
}

func (s *Server) deleteDict(dict *[]domain.DictionaryEntry) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, _ string) {
		id := r.PathValue("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range *dict {
			if e.ID == id {
				*dict = append((*dict)[:i], (*dict)[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeError(w, http.StatusNotFound, "entry not found")
	}
}

func (s *Server) listRecipes(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]domain.Recipe{}, s.recipes...))
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request, _ string) {
	var d domain.RecipeDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := domain.Recipe{ID: uuid.NewString(), Title: d.Title, Ingredients: d.Ingredients}
	s.mu.Lock()
	s.recipes = append(s.recipes, rec)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) patchRecipe(w http.ResponseWriter, r *http.Request, _ string) {
	var d domain.RecipeDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recipes {
		if s.recipes[i].ID == id {
			if d.Title != "" {
				s.recipes[i].Title = d.Title
			}
			if d.Ingredients != nil {
				s.recipes[i].Ingredients = d.Ingredients
			}
			writeJSON(w, http.StatusOK, s.recipes[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "recipe not found")
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request, _ string) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.recipes {
		if rec.ID == id {
			s.recipes = append(s.recipes[:i], s.recipes[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "recipe not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
