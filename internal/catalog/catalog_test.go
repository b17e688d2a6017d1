package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/persist"
)

// fakeCatalogAPI serves canned book/category lists and records mutation
// requests so tests can assert on exactly what went over the wire.
type fakeCatalogAPI struct {
	mux *http.ServeMux

	failBooks    bool
	failMutation bool

	requests    atomic.Int64
	lastForm    map[string][]string
	hasFormFile bool
}

func newFakeCatalogAPI() *fakeCatalogAPI {
	f := &fakeCatalogAPI{mux: http.NewServeMux()}

	f.mux.HandleFunc("GET /books/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failBooks {
			http.Error(w, `{"detail":"down"}`, http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[
			{"id":"b1","title":"Things Fall Apart","author":"Chinua Achebe","price":"1500.00",
			 "cover_image":"","category":{"id":"c1","name":"Fiction","slug":"fiction"},
			 "stock_quantity":12,"is_active":true,"description":"","isbn":"","publisher":""}
		]`))
	})
	f.mux.HandleFunc("GET /categories/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		w.Write([]byte(`[{"id":"c1","name":"Fiction","slug":"fiction"}]`))
	})
	f.mux.HandleFunc("POST /books/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failMutation {
			http.Error(w, `{"detail":"rejected"}`, http.StatusBadRequest)
			return
		}
		f.captureForm(r)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"b-new","title":"` + r.FormValue("title") + `","author":"` + r.FormValue("author") + `",
			"price":"` + r.FormValue("price") + `","cover_image":"/media/covers/new.jpg",
			"category":{"id":"c1","name":"Fiction","slug":"fiction"},
			"stock_quantity":3,"is_active":true,"description":"","isbn":"","publisher":""}`))
	})
	f.mux.HandleFunc("PATCH /books/b1/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failMutation {
			http.Error(w, `{"detail":"rejected"}`, http.StatusBadRequest)
			return
		}
		f.captureForm(r)
		w.Write([]byte(`{"id":"b1","title":"","author":"","price":"1500.00","cover_image":"",
			"category":{"id":"c1","name":"Fiction","slug":"fiction"},
			"stock_quantity":0,"is_active":true,"description":"","isbn":"","publisher":""}`))
	})
	f.mux.HandleFunc("DELETE /books/b1/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failMutation {
			http.Error(w, `{"detail":"rejected"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	f.mux.HandleFunc("POST /categories/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failMutation {
			http.Error(w, `{"detail":"rejected"}`, http.StatusBadRequest)
			return
		}
		var in struct{ Name, Slug string }
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "c-" + in.Slug, "name": in.Name, "slug": in.Slug})
	})
	return f
}

func (f *fakeCatalogAPI) captureForm(r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err == nil {
		f.lastForm = r.MultipartForm.Value
		_, _, err := r.FormFile("cover_image")
		f.hasFormFile = err == nil
	}
}

func newTestStore(t *testing.T) (*Store, *fakeCatalogAPI, persist.Adapter) {
	t.Helper()
	api := newFakeCatalogAPI()
	ts := httptest.NewServer(api.mux)
	t.Cleanup(ts.Close)

	adapter := persist.NewMemory()
	store := New(clients.New(ts.URL, adapter), adapter)
	return store, api, adapter
}

func loadedStore(t *testing.T) (*Store, *fakeCatalogAPI) {
	t.Helper()
	store, api, _ := newTestStore(t)
	require.NoError(t, store.Load(context.Background()))
	api.requests.Store(0)
	return store, api
}

// ============================================
// Load Tests
// ============================================

func TestLoad_MapsRecordsAndFlattensCategory(t *testing.T) {
	store, _, _ := newTestStore(t)
	assert.True(t, store.Loading())

	require.NoError(t, store.Load(context.Background()))

	assert.False(t, store.Loading())
	books := store.Books()
	require.Len(t, books, 1)
	assert.Equal(t, 1500.0, books[0].Price, "decimal string parsed to number")
	assert.Equal(t, "Fiction", books[0].Category)
	assert.Equal(t, "c1", books[0].CategoryID)
	assert.Equal(t, "N/A", books[0].ISBN)
	assert.Equal(t, "UNN Press", books[0].Publisher)
	assert.Equal(t, domain.DefaultCoverImage, books[0].CoverImage())

	categories := store.Categories()
	require.Len(t, categories, 1)
	assert.Equal(t, "Fiction", categories[0].Name)
}

func TestLoad_OverwritesWarmPersistedCopy(t *testing.T) {
	api := newFakeCatalogAPI()
	ts := httptest.NewServer(api.mux)
	t.Cleanup(ts.Close)

	adapter := persist.NewMemory()
	persist.SaveJSON(adapter, persist.KeyBooks, []domain.Book{{ID: "stale", Title: "Stale Book"}})

	store := New(clients.New(ts.URL, adapter), adapter)
	require.Len(t, store.Books(), 1, "warm copy served before load")
	assert.Equal(t, "stale", store.Books()[0].ID)

	require.NoError(t, store.Load(context.Background()))

	books := store.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID, "fetch replaces the mirror wholesale, never merges")
}

func TestLoad_FetchFailureKeepsStoreLoading(t *testing.T) {
	store, api, _ := newTestStore(t)
	api.failBooks = true

	require.Error(t, store.Load(context.Background()))
	assert.True(t, store.Loading())
}

// ============================================
// CreateBook Tests
// ============================================

func TestCreateBook_UnknownCategoryFailsValidationBeforeNetwork(t *testing.T) {
	store, api := loadedStore(t)

	store.CreateBook(context.Background(), CreateBookInput{
		Title: "Ghost", Author: "Nobody", Price: 100, Category: "No Such Category",
	})

	assert.Zero(t, api.requests.Load(), "validation failure must not reach the network")
	assert.Len(t, store.Books(), 1, "local state unchanged")

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationError, notifications[0].Type)
	assert.Equal(t, "Failed to add book.", notifications[0].Message)
}

func TestCreateBook_PrependsServerConfirmedBook(t *testing.T) {
	store, api := loadedStore(t)

	store.CreateBook(context.Background(), CreateBookInput{
		Title: "No Longer at Ease", Author: "Chinua Achebe", Price: 1800,
		StockQuantity: 3, IsActive: true, Category: "Fiction",
		Image: []byte{0xff, 0xd8}, ImageName: "cover.jpg",
	})

	books := store.Books()
	require.Len(t, books, 2)
	assert.Equal(t, "b-new", books[0].ID, "server-assigned id, prepended")
	assert.Equal(t, "/media/covers/new.jpg", books[0].Image, "canonical image URL from the server")
	assert.True(t, api.hasFormFile, "binary image attached to the multipart payload")
	assert.Equal(t, []string{"1800"}, api.lastForm["price"])
	assert.Equal(t, []string{"c1"}, api.lastForm["category_id"])

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationSuccess, notifications[0].Type)
	assert.Equal(t, "Book Added", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, "No Longer at Ease")
}

func TestCreateBook_ServerRejectionLeavesStateUntouched(t *testing.T) {
	store, api := loadedStore(t)
	api.failMutation = true

	store.CreateBook(context.Background(), CreateBookInput{
		Title: "Rejected", Author: "A", Price: 10, Category: "Fiction",
	})

	assert.Len(t, store.Books(), 1)
	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationError, notifications[0].Type)
}

// ============================================
// UpdateBook Tests
// ============================================

func TestUpdateBook_SendsOnlyPatchedFields(t *testing.T) {
	store, api := loadedStore(t)

	price := 2000.0
	store.UpdateBook(context.Background(), "b1", UpdateBookInput{Price: &price})

	assert.Equal(t, []string{"2000"}, api.lastForm["price"])
	_, hasTitle := api.lastForm["title"]
	assert.False(t, hasTitle, "absent fields must not be sent")
	_, hasActive := api.lastForm["is_active"]
	assert.False(t, hasActive)

	books := store.Books()
	assert.Equal(t, 2000.0, books[0].Price, "patched field merged")
	assert.Equal(t, "Things Fall Apart", books[0].Title, "unpatched fields untouched")

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationInfo, notifications[0].Type)
	assert.Equal(t, "Book Updated", notifications[0].Title)
}

func TestUpdateBook_ImageKeptUnlessServerReturnsOne(t *testing.T) {
	store, _ := loadedStore(t)

	title := "Renamed"
	store.UpdateBook(context.Background(), "b1", UpdateBookInput{Title: &title})

	// PATCH fixture returns cover_image: "" -> local image untouched.
	assert.Equal(t, "", store.Books()[0].Image)
	assert.Equal(t, "Renamed", store.Books()[0].Title)
}

func TestUpdateBook_FailureLeavesStateUntouched(t *testing.T) {
	store, api := loadedStore(t)
	api.failMutation = true

	title := "Renamed"
	store.UpdateBook(context.Background(), "b1", UpdateBookInput{Title: &title})

	assert.Equal(t, "Things Fall Apart", store.Books()[0].Title)
	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationError, notifications[0].Type)
	assert.Equal(t, "Failed to update book.", notifications[0].Message)
}

// ============================================
// DeleteBook Tests
// ============================================

func TestDeleteBook_RemovesOnlyAfterServerConfirms(t *testing.T) {
	store, _ := loadedStore(t)

	store.DeleteBook(context.Background(), "b1")

	assert.Empty(t, store.Books())
	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationWarning, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "Things Fall Apart")
}

func TestDeleteBook_FailureKeepsBookAndAddsOneErrorNotification(t *testing.T) {
	store, api := loadedStore(t)
	api.failMutation = true

	store.DeleteBook(context.Background(), "b1")

	require.Len(t, store.Books(), 1)
	assert.Equal(t, "b1", store.Books()[0].ID)

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationError, notifications[0].Type)
	assert.Equal(t, "Failed to delete book.", notifications[0].Message)
}

// ============================================
// CreateCategory Tests
// ============================================

func TestCreateCategory_DerivesSlug(t *testing.T) {
	store, api := loadedStore(t)

	store.CreateCategory(context.Background(), "Philosophy Studies")

	categories := store.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "philosophy-studies", categories[1].Slug)
	assert.Equal(t, int64(1), api.requests.Load())

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "Category Added", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, "Philosophy Studies")
}

func TestCreateCategory_IdempotentOnRepeatedID(t *testing.T) {
	store, _ := loadedStore(t)

	store.CreateCategory(context.Background(), "Poetry")
	store.CreateCategory(context.Background(), "Poetry")

	count := 0
	for _, c := range store.Categories() {
		if c.Name == "Poetry" {
			count++
		}
	}
	assert.Equal(t, 1, count, "same server id must not be appended twice")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"single word", "Fiction", "fiction"},
		{"two words", "Philosophy Studies", "philosophy-studies"},
		{"whitespace run", "Deep   Learning", "deep-learning"},
		{"mixed case", "SCIENCE fiction", "science-fiction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.in))
		})
	}
}

// ============================================
// Notification Log Tests
// ============================================

func TestNotificationLog(t *testing.T) {
	store, _ := loadedStore(t)

	store.AddNotification("First", "m1", domain.NotificationInfo)
	store.AddNotification("Second", "m2", domain.NotificationSuccess)

	notifications := store.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "Second", notifications[0].Title, "newest first")
	assert.False(t, notifications[0].Read)

	store.MarkNotificationAsRead(notifications[1].ID)
	notifications = store.Notifications()
	assert.True(t, notifications[1].Read)
	assert.False(t, notifications[0].Read)

	store.ClearNotifications()
	assert.Empty(t, store.Notifications())
}

func TestNotificationTimestampsRoundTripThroughPersistence(t *testing.T) {
	api := newFakeCatalogAPI()
	ts := httptest.NewServer(api.mux)
	t.Cleanup(ts.Close)

	adapter := persist.NewMemory()
	store := New(clients.New(ts.URL, adapter), adapter)
	store.AddNotification("Persisted", "m", domain.NotificationInfo)
	original := store.Notifications()[0]

	restored := New(clients.New(ts.URL, adapter), adapter)
	notifications := restored.Notifications()
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Timestamp.IsZero(), "timestamp must deserialize to a real instant")
	assert.True(t, original.Timestamp.Equal(notifications[0].Timestamp))
}

// ============================================
// Error Taxonomy Tests
// ============================================

func TestErrorClass(t *testing.T) {
	transport := context.DeadlineExceeded

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"unknown category", errUnknownCategory, "validation"},
		{"auth", clients.ErrAuthFailed, "auth"},
		{"server rejection", &clients.StatusError{StatusCode: 400}, "server"},
		{"transport", transport, "transport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorClass(tt.err))
		})
	}
}
