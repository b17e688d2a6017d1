// Package apisim is an in-memory stand-in for the bookshop backend, used
// for local development and end-to-end exercises of the client stores. It
// mimics the wire shapes of the real API: decimal prices as strings, nested
// categories, multipart book writes, and a JWT access/refresh pair.
package apisim

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Price         string   `json:"price"`
	CoverImage    string   `json:"cover_image"`
	Category      category `json:"category"`
	StockQuantity int      `json:"stock_quantity"`
	IsActive      bool     `json:"is_active"`
	Description   string   `json:"description"`
	ISBN          string   `json:"isbn"`
	Publisher     string   `json:"publisher"`
}

type account struct {
	ID       string
	Email    string
	Username string
	Password string
	IsStaff  bool
}

// Server holds simulator state behind one lock; handlers are short and the
// simulator is not a performance concern.
type Server struct {
	secret []byte

	mu         sync.Mutex
	books      []book
	categories []category
	accounts   map[string]*account // by email
	payments   map[string]string   // reference -> status
}

// New builds a simulator with a signing secret for its throwaway tokens.
func New(secret string) *Server {
	s := &Server{
		secret:   []byte(secret),
		accounts: make(map[string]*account),
		payments: make(map[string]string),
	}
	return s
}

// Seed installs an admin account and a starter catalog.
func (s *Server) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts["admin@unn.edu"] = &account{
		ID:       uuid.NewString(),
		Email:    "admin@unn.edu",
		Username: "admin",
		Password: "admin123!",
		IsStaff:  true,
	}
	fiction := category{ID: uuid.NewString(), Name: "Fiction", Slug: "fiction"}
	textbooks := category{ID: uuid.NewString(), Name: "Textbooks", Slug: "textbooks"}
	s.categories = []category{fiction, textbooks}
	s.books = []book{
		{
			ID: uuid.NewString(), Title: "Things Fall Apart", Author: "Chinua Achebe",
			Price: "1500.00", Category: fiction, StockQuantity: 12, IsActive: true,
			ISBN: "9780385474542", Publisher: "Anchor",
		},
		{
			ID: uuid.NewString(), Title: "Introduction to Algorithms", Author: "Cormen et al.",
			Price: "15000.00", Category: textbooks, StockQuantity: 4, IsActive: true,
			ISBN: "9780262046305", Publisher: "MIT Press",
		},
	}
}

// Handler returns the full route tree, mounted under /api like the real
// backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register/", s.handleRegister)
		r.Post("/auth/login/", s.handleLogin)
		r.Post("/auth/token/refresh/", s.handleRefresh)
		r.Post("/auth/logout/", s.handleLogout)
		r.Get("/auth/profile/", s.requireAuth(s.handleProfile))

		r.Get("/books/", s.handleListBooks)
		r.Post("/books/", s.requireAuth(s.handleCreateBook))
		r.Patch("/books/{id}/", s.requireAuth(s.handleUpdateBook))
		r.Delete("/books/{id}/", s.requireAuth(s.handleDeleteBook))

		r.Get("/categories/", s.handleListCategories)
		r.Post("/categories/", s.requireAuth(s.handleCreateCategory))

		r.Get("/orders/", s.requireAuth(s.handleListOrders))
		r.Post("/checkout/initiate/", s.handleCheckoutInitiate)
		r.Get("/checkout/confirm/", s.handleCheckoutConfirm)
	})
	return r
}

// ---- auth ----

func (s *Server) mintToken(sub string, ttl time.Duration, kind string) (string, error) {
	claims := jwt.MapClaims{
		"sub": sub,
		"typ": kind,
		"exp": jwt.NewNumericDate(time.Now().Add(ttl)),
		"iat": jwt.NewNumericDate(time.Now()),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return sub, nil
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, `{"detail":"credentials not provided"}`, http.StatusUnauthorized)
			return
		}
		email, err := s.parseToken(raw)
		if err != nil {
			http.Error(w, `{"detail":"token not valid"}`, http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-Sim-User", email)
		next(w, r)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		http.Error(w, `{"detail":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[in.Email]; exists {
		http.Error(w, `{"detail":"account exists"}`, http.StatusBadRequest)
		return
	}
	s.accounts[in.Email] = &account{ID: uuid.NewString(), Email: in.Email, Username: in.Username, Password: in.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"email": in.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"detail":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[in.Email]
	s.mu.Unlock()
	if !ok || acct.Password != in.Password {
		http.Error(w, `{"detail":"no active account found"}`, http.StatusUnauthorized)
		return
	}
	access, err := s.mintToken(acct.Email, accessTokenTTL, "access")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	refresh, err := s.mintToken(acct.Email, refreshTokenTTL, "refresh")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"detail":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	email, err := s.parseToken(in.Refresh)
	if err != nil {
		http.Error(w, `{"detail":"token not valid"}`, http.StatusUnauthorized)
		return
	}
	access, err := s.mintToken(email, accessTokenTTL, "access")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"detail": "logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acct := s.accounts[r.Header.Get("X-Sim-User")]
	s.mu.Unlock()
	if acct == nil {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           acct.ID,
		"email":        acct.Email,
		"username":     acct.Username,
		"first_name":   "",
		"last_name":    "",
		"avatar":       nil,
		"is_staff":     acct.IsStaff,
		"is_superuser": false,
	})
}

// ---- catalog ----

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]book, len(s.books))
	copy(out, s.books)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, `{"detail":"expected multipart form"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categoryByID(r.FormValue("category_id"))
	if !ok {
		http.Error(w, `{"category_id":["invalid pk"]}`, http.StatusBadRequest)
		return
	}
	b := book{
		ID:            uuid.NewString(),
		Title:         r.FormValue("title"),
		Author:        r.FormValue("author"),
		Price:         r.FormValue("price"),
		Category:      cat,
		StockQuantity: atoi(r.FormValue("stock_quantity")),
		IsActive:      r.FormValue("is_active") == "true",
		Description:   r.FormValue("description"),
		ISBN:          r.FormValue("isbn"),
		Publisher:     r.FormValue("publisher"),
	}
	if _, header, err := r.FormFile("cover_image"); err == nil {
		b.CoverImage = "/media/covers/" + header.Filename
	}
	s.books = append([]book{b}, s.books...)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, `{"detail":"expected multipart form"}`, http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.books {
		if s.books[i].ID != id {
			continue
		}
		b := &s.books[i]
		form := r.MultipartForm.Value
		if v, ok := form["title"]; ok {
			b.Title = v[0]
		}
		if v, ok := form["author"]; ok {
			b.Author = v[0]
		}
		if v, ok := form["price"]; ok {
			b.Price = v[0]
		}
		if v, ok := form["description"]; ok {
			b.Description = v[0]
		}
		if v, ok := form["stock_quantity"]; ok {
			b.StockQuantity = atoi(v[0])
		}
		if v, ok := form["is_active"]; ok {
			b.IsActive = v[0] == "true"
		}
		if v, ok := form["isbn"]; ok {
			b.ISBN = v[0]
		}
		if v, ok := form["publisher"]; ok {
			b.Publisher = v[0]
		}
		if v, ok := form["category_id"]; ok {
			if cat, found := s.categoryByID(v[0]); found {
				b.Category = cat
			}
		}
		if _, header, err := r.FormFile("cover_image"); err == nil {
			b.CoverImage = "/media/covers/" + header.Filename
		}
		writeJSON(w, http.StatusOK, *b)
		return
	}
	http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.books {
		if s.books[i].ID == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]category, len(s.categories))
	copy(out, s.categories)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		http.Error(w, `{"detail":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == in.Name {
			// idempotent create, mirrors unique name constraint
			writeJSON(w, http.StatusCreated, c)
			return
		}
	}
	c := category{ID: uuid.NewString(), Name: in.Name, Slug: in.Slug}
	s.categories = append(s.categories, c)
	writeJSON(w, http.StatusCreated, c)
}

// ---- orders & checkout ----

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []any{})
}

func (s *Server) handleCheckoutInitiate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items []struct {
			BookID   string `json:"book_id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		Email    string `json:"email"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Items) == 0 || in.Email == "" {
		http.Error(w, `{"detail":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	reference := uuid.NewString()
	s.mu.Lock()
	s.payments[reference] = "pending"
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{
		"payment_url": "https://checkout.example.com/pay/" + reference,
		"reference":   reference,
		"order_id":    uuid.NewString(),
	})
}

func (s *Server) handleCheckoutConfirm(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	s.mu.Lock()
	status, ok := s.payments[reference]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"error":"Transaction not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reference": reference, "payment_status": status})
}

// ---- helpers ----

// categoryByID is called with the lock held.
func (s *Server) categoryByID(id string) (category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return category{}, false
}

func atoi(v string) int {
	n := 0
	fmt.Sscanf(v, "%d", &n)
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
