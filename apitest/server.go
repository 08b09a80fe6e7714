// Package apitest provides an in-process fake of the character asset API.
//
// The fake keeps users, characters and their artifacts in memory, serves the
// same routes and JSON shapes as the real service, and records every request
// it receives so tests can assert on probe order and counts.
//
//	srv := apitest.NewServer()
//	defer srv.Close()
//
//	token := srv.AddUser("alice", "alice@example.com", "secret")
//	srv.AddCharacter("hero.jpg", apitest.Character{Image: []byte("...")})
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"

	"github.com/closureme/closureme"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Character is a stored character with optional artifacts.
// A nil artifact slice means the record has no path for it.
type Character struct {
	Image      []byte
	ImageExt   string // defaults to the extension of the stored name, else ".png"
	Appearance []byte
	Memory     []byte
}

// PendingImage is an entry of the pending image queue used by mirror jobs.
type PendingImage = closureme.PendingImage

// Request is a request observed by the fake.
type Request struct {
	Method        string
	Path          string
	Query         map[string][]string
	Authorization string
	ContentType   string
	Body          []byte
}

type user struct {
	id       int
	username string
	email    string
	password string
}

type stored struct {
	name       string
	character  Character
	imagePath  string
	appearance string
	memory     string
	uploadedAt string
}

type failure struct {
	status int
	body   string
}

// Server is a fake character API backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      []*user
	tokens     map[string]*user
	characters map[string]*stored
	artifacts  map[string][]byte
	failures   map[string]failure
	pending    []PendingImage
	requests   []Request
	nextID     int
}

// NewServer starts a fake API server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		tokens:     make(map[string]*user),
		characters: make(map[string]*stored),
		artifacts:  make(map[string][]byte),
		failures:   make(map[string]failure),
		nextID:     1,
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router returns the chi router serving the fake API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/get-pending-images", s.handlePending)

		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Get("/download-character", s.handleDownload)
			r.Post("/upload-character", s.handleUpload)
			r.Delete("/delete-character", s.handleDelete)
			r.Patch("/rename-character", s.handleRename)
			r.Get("/files", s.handleFiles)
		})
	})

	r.Get("/uploads/*", s.handleArtifact)

	return r
}

// AddUser registers a user and returns a bearer token issued for it.
func (s *Server) AddUser(username, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.addUserLocked(username, email, password)
	return s.issueTokenLocked(u)
}

// AddCharacter stores a character under its stored file name, for example
// "hero.jpg". Artifacts are served under /uploads/.
func (s *Server) AddCharacter(storedName string, c Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCharacterLocked(storedName, c)
}

// FailLookup makes download-character respond with status and body for the
// given fileName query value.
func (s *Server) FailLookup(fileName string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[fileName] = failure{status: status, body: body}
}

// SetArtifact overrides the content served at an artifact path. A nil
// content removes the artifact so the path answers 404.
func (s *Server) SetArtifact(urlPath string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content == nil {
		delete(s.artifacts, urlPath)
		return
	}
	s.artifacts[urlPath] = content
}

// SetPending replaces the pending image queue.
func (s *Server) SetPending(images []PendingImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = images
}

// HasCharacter reports whether a character is stored under the given name.
func (s *Server) HasCharacter(storedName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.characters[storedName]
	return ok
}

// Requests returns the recorded requests, optionally filtered by URL path.
func (s *Server) Requests(urlPath string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if urlPath == "" || r.Path == urlPath {
			out = append(out, r)
		}
	}
	return out
}

// ProbedNames returns the fileName values sent to download-character, in order.
func (s *Server) ProbedNames() []string {
	var names []string
	for _, r := range s.Requests("/api/download-character") {
		names = append(names, firstValue(r.Query, "fileName"))
	}
	return names
}

func (s *Server) addUserLocked(username, email, password string) *user {
	u := &user{id: s.nextID, username: username, email: email, password: password}
	s.nextID++
	s.users = append(s.users, u)
	return u
}

func (s *Server) issueTokenLocked(u *user) string {
	token := uuid.NewString()
	s.tokens[token] = u
	return token
}

func (s *Server) addCharacterLocked(storedName string, c Character) {
	base := strings.TrimSuffix(storedName, path.Ext(storedName))
	st := &stored{name: storedName, character: c, uploadedAt: "2025-01-02T03:04:05Z"}

	if c.Image != nil {
		ext := c.ImageExt
		if ext == "" {
			ext = path.Ext(storedName)
		}
		if ext == "" {
			ext = ".png"
		}
		st.imagePath = fmt.Sprintf("/uploads/%s-%d%s", base, s.nextID, ext)
		s.artifacts[st.imagePath] = c.Image
	}
	if c.Appearance != nil {
		st.appearance = fmt.Sprintf("/uploads/%s-%d_profile.txt", base, s.nextID)
		s.artifacts[st.appearance] = c.Appearance
	}
	if c.Memory != nil {
		st.memory = fmt.Sprintf("/uploads/%s-%d_memory.txt", base, s.nextID)
		s.artifacts[st.memory] = c.Memory
	}
	s.nextID++

	s.characters[storedName] = st
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.tokens[token]
		s.mu.Unlock()

		if !ok || !known {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "all fields are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.username == req.Username || u.email == req.Email {
			writeMessage(w, http.StatusBadRequest, "username or email already registered")
			return
		}
	}

	u := s.addUserLocked(req.Username, req.Email, req.Password)
	_ = writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registered",
		"user":    userJSON(u),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "missing identifier or password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.username != req.Identifier && u.email != req.Identifier {
			continue
		}
		if u.password != req.Password {
			writeMessage(w, http.StatusUnauthorized, "wrong password")
			return
		}
		_ = writeJSON(w, http.StatusOK, map[string]any{
			"message": "logged in",
			"token":   s.issueTokenLocked(u),
			"user":    userJSON(u),
		})
		return
	}

	writeMessage(w, http.StatusUnauthorized, "account does not exist")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("fileName")
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "fileName is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.failures[name]; ok {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	st, ok := s.characters[name]
	if !ok {
		writeMessage(w, http.StatusNotFound, "character not found")
		return
	}

	_ = writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"data": map[string]any{
			"filename":       st.name,
			"imagePath":      nullable(st.imagePath),
			"appearancePath": nullable(st.appearance),
			"memoryPath":     nullable(st.memory),
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	filename := r.FormValue("filename")
	if filename == "" {
		writeMessage(w, http.StatusBadRequest, "missing required data")
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "read upload")
		return
	}

	ext := path.Ext(header.Filename)
	storedName := filename + ext

	s.mu.Lock()
	defer s.mu.Unlock()

	s.addCharacterLocked(storedName, Character{
		Image:      image,
		ImageExt:   ext,
		Appearance: []byte(r.FormValue("appearance")),
		Memory:     []byte(r.FormValue("memory")),
	})
	st := s.characters[storedName]

	_ = writeJSON(w, http.StatusOK, map[string]any{
		"message": "uploaded",
		"data": map[string]any{
			"filename":    storedName,
			"imagePath":   st.imagePath,
			"profilePath": st.appearance,
			"memoryPath":  st.memory,
		},
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		writeMessage(w, http.StatusBadRequest, "fileName is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.findLocked(req.FileName)
	if !ok {
		writeMessage(w, http.StatusNotFound, "character not found")
		return
	}

	st := s.characters[key]
	for _, p := range []string{st.imagePath, st.appearance, st.memory} {
		delete(s.artifacts, p)
	}
	delete(s.characters, key)

	writeMessage(w, http.StatusOK, "deleted")
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
		NewName  string `json:"newName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" || req.NewName == "" {
		writeMessage(w, http.StatusBadRequest, "fileName and newName are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.findLocked(req.FileName)
	if !ok {
		writeMessage(w, http.StatusNotFound, "character not found")
		return
	}

	st := s.characters[key]
	delete(s.characters, key)
	st.name = req.NewName + path.Ext(key)
	s.characters[st.name] = st

	writeMessage(w, http.StatusOK, "renamed")
}

func (s *Server) handleFiles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]map[string]any, 0, len(s.characters))
	for _, st := range s.characters {
		files = append(files, map[string]any{
			"image_id":        len(files) + 1,
			"file_name":       st.name,
			"uploaded_at":     st.uploadedAt,
			"image_path":      nullable(st.imagePath),
			"appearance_path": nullable(st.appearance),
			"memory_path":     nullable(st.memory),
		})
	}

	_ = writeJSON(w, http.StatusOK, files)
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	if pending == nil {
		pending = []PendingImage{}
	}
	_ = writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.artifacts[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

// findLocked matches a character by stored name or by the name without extension.
func (s *Server) findLocked(name string) (string, bool) {
	if _, ok := s.characters[name]; ok {
		return name, true
	}
	for key := range s.characters {
		if strings.TrimSuffix(key, path.Ext(key)) == name {
			return key, true
		}
	}
	return "", false
}

func userJSON(u *user) map[string]any {
	return map[string]any{"id": u.id, "username": u.username, "email": u.email}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func firstValue(q map[string][]string, key string) string {
	if v := q[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// writeMessage writes a JSON body carrying only a message field.
func writeMessage(w http.ResponseWriter, code int, message string) {
	_ = writeJSON(w, code, map[string]string{"message": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
