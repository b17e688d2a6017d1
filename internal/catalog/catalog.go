package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/logging"
	"github.com/example/bookshop-client/internal/persist"
)

// errUnknownCategory aborts a mutation before any network call is made.
var errUnknownCategory = errors.New("unknown category")

// Store synchronizes local book and category state with the remote catalog.
// Mutations wait for server confirmation before touching local state and
// never fail past this boundary: every failure path is converted into an
// error Notification plus a logged diagnostic.
type Store struct {
	client *clients.Client
	save   persist.Adapter
	tracer trace.Tracer

	mu            sync.Mutex
	books         []domain.Book
	categories    []domain.Category
	notifications []domain.Notification
	initialized   bool
}

// New builds a Store, warming it from the persisted mirror. The warm copy
// only bridges the gap until Load overwrites it with the server's catalog.
func New(client *clients.Client, save persist.Adapter) *Store {
	s := &Store{
		client: client,
		save:   save,
		tracer: otel.Tracer("bookshop/catalog"),
	}
	persist.LoadJSON(save, persist.KeyBooks, &s.books)
	persist.LoadJSON(save, persist.KeyCategories, &s.categories)
	persist.LoadJSON(save, persist.KeyNotifications, &s.notifications)
	return s
}

// Load fetches the full book and category lists concurrently and replaces
// local state wholesale. Until it returns successfully the store reports
// itself as loading and the UI layer is expected to hold back mutations.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "catalog.load")
	defer span.End()

	var (
		wg       sync.WaitGroup
		bookRecs []bookRecord
		catRecs  []categoryRecord
		bookErr  error
		catErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bookErr = s.client.GetJSON(ctx, "/books/", &bookRecs)
	}()
	go func() {
		defer wg.Done()
		catErr = s.client.GetJSON(ctx, "/categories/", &catRecs)
	}()
	wg.Wait()

	if bookErr != nil {
		logging.Error("catalog", "load_books", bookErr, map[string]any{"class": ErrorClass(bookErr)})
		span.RecordError(bookErr)
		return bookErr
	}
	if catErr != nil {
		logging.Error("catalog", "load_categories", catErr, map[string]any{"class": ErrorClass(catErr)})
		span.RecordError(catErr)
		return catErr
	}

	books := make([]domain.Book, 0, len(bookRecs))
	for _, r := range bookRecs {
		books = append(books, mapBook(r))
	}
	categories := make([]domain.Category, 0, len(catRecs))
	for _, r := range catRecs {
		categories = append(categories, mapCategory(r))
	}

	s.mu.Lock()
	s.books = books
	s.categories = categories
	s.initialized = true
	s.persistCatalog()
	s.mu.Unlock()

	logging.Info("catalog", "load", map[string]any{"books": len(books), "categories": len(categories)})
	return nil
}

// Loading reports whether the initial fetch has not yet completed.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.initialized
}

// Books returns a copy of the current book list.
func (s *Store) Books() []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Categories returns a copy of the current category list.
func (s *Store) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// CreateBook resolves the category name, submits the multipart payload and,
// only on server confirmation, prepends the returned book to local state.
func (s *Store) CreateBook(ctx context.Context, in CreateBookInput) {
	ctx, span := s.tracer.Start(ctx, "catalog.create_book")
	defer span.End()

	category, ok := s.categoryByName(in.Category)
	if !ok {
		s.fail("create_book", fmt.Errorf("%w: %q", errUnknownCategory, in.Category), "Failed to add book.")
		return
	}

	body, contentType, err := buildCreateForm(in, category.ID)
	if err != nil {
		s.fail("create_book", err, "Failed to add book.")
		return
	}

	var rec bookRecord
	if err := s.client.PostForm(ctx, "/books/", contentType, body, &rec); err != nil {
		span.RecordError(err)
		s.fail("create_book", err, "Failed to add book.")
		return
	}

	book := mapBook(rec)
	s.mu.Lock()
	s.books = append([]domain.Book{book}, s.books...)
	persist.SaveJSON(s.save, persist.KeyBooks, s.books)
	s.mu.Unlock()

	s.AddNotification("Book Added", fmt.Sprintf("%q has been added to inventory.", book.Title), domain.NotificationSuccess)
}

// UpdateBook sends only the fields present in the patch and merges them into
// the matching local record once the server confirms.
func (s *Store) UpdateBook(ctx context.Context, id string, in UpdateBookInput) {
	ctx, span := s.tracer.Start(ctx, "catalog.update_book")
	defer span.End()

	categoryID := ""
	var category domain.Category
	if in.Category != nil {
		var ok bool
		category, ok = s.categoryByName(*in.Category)
		if !ok {
			s.fail("update_book", fmt.Errorf("%w: %q", errUnknownCategory, *in.Category), "Failed to update book.")
			return
		}
		categoryID = category.ID
	}

	body, contentType, err := buildPatchForm(in, categoryID)
	if err != nil {
		s.fail("update_book", err, "Failed to update book.")
		return
	}

	var rec bookRecord
	if err := s.client.PatchForm(ctx, "/books/"+id+"/", contentType, body, &rec); err != nil {
		span.RecordError(err)
		s.fail("update_book", err, "Failed to update book.")
		return
	}

	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID != id {
			continue
		}
		b := &s.books[i]
		if in.Title != nil {
			b.Title = *in.Title
		}
		if in.Author != nil {
			b.Author = *in.Author
		}
		if in.Price != nil {
			b.Price = *in.Price
		}
		if in.Description != nil {
			b.Description = *in.Description
		}
		if in.StockQuantity != nil {
			b.StockQuantity = *in.StockQuantity
		}
		if in.IsActive != nil {
			b.IsActive = *in.IsActive
		}
		if in.ISBN != nil {
			b.ISBN = *in.ISBN
		}
		if in.Publisher != nil {
			b.Publisher = *in.Publisher
		}
		if in.Category != nil {
			b.Category = category.Name
			b.CategoryID = category.ID
		}
		if rec.CoverImage != "" {
			b.Image = rec.CoverImage
		}
		break
	}
	persist.SaveJSON(s.save, persist.KeyBooks, s.books)
	s.mu.Unlock()

	s.AddNotification("Book Updated", "Book details have been updated successfully.", domain.NotificationInfo)
}

// DeleteBook issues the remote delete first; the local record is removed
// only on success.
func (s *Store) DeleteBook(ctx context.Context, id string) {
	ctx, span := s.tracer.Start(ctx, "catalog.delete_book")
	defer span.End()

	if err := s.client.Delete(ctx, "/books/"+id+"/"); err != nil {
		span.RecordError(err)
		s.fail("delete_book", err, "Failed to delete book.")
		return
	}

	title := ""
	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID == id {
			title = s.books[i].Title
			s.books = append(s.books[:i], s.books[i+1:]...)
			break
		}
	}
	persist.SaveJSON(s.save, persist.KeyBooks, s.books)
	s.mu.Unlock()

	if title != "" {
		s.AddNotification("Book Deleted", fmt.Sprintf("%q has been removed from inventory.", title), domain.NotificationWarning)
	}
}

// CreateCategory derives a slug from the name and appends the confirmed
// category, skipping the append if the id is already present.
func (s *Store) CreateCategory(ctx context.Context, name string) {
	ctx, span := s.tracer.Start(ctx, "catalog.create_category")
	defer span.End()

	payload := map[string]string{"name": name, "slug": Slugify(name)}
	var rec categoryRecord
	if err := s.client.PostJSON(ctx, "/categories/", payload, &rec); err != nil {
		span.RecordError(err)
		s.fail("create_category", err, "Failed to add category.")
		return
	}

	created := false
	s.mu.Lock()
	exists := false
	for _, c := range s.categories {
		if c.ID == rec.ID {
			exists = true
			break
		}
	}
	if !exists {
		s.categories = append(s.categories, mapCategory(rec))
		persist.SaveJSON(s.save, persist.KeyCategories, s.categories)
		created = true
	}
	s.mu.Unlock()

	if created {
		s.AddNotification("Category Added", fmt.Sprintf("Category %q has been created.", name), domain.NotificationSuccess)
	}
}

func (s *Store) categoryByName(name string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

// fail converts any mutation failure into a single generic error
// Notification, recording the distinguished class only in the diagnostics.
func (s *Store) fail(action string, err error, message string) {
	logging.Error("catalog", action, err, map[string]any{"class": ErrorClass(err)})
	s.AddNotification("Error", message, domain.NotificationError)
}

// persistCatalog mirrors books, categories and notifications; callers hold
// the lock.
func (s *Store) persistCatalog() {
	persist.SaveJSON(s.save, persist.KeyBooks, s.books)
	persist.SaveJSON(s.save, persist.KeyCategories, s.categories)
	persist.SaveJSON(s.save, persist.KeyNotifications, s.notifications)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases a category name and collapses whitespace runs into
// single hyphens.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// ErrorClass names the internal failure taxonomy for logging and tests:
// validation, auth, server or transport. The user-facing notification does
// not distinguish these.
func ErrorClass(err error) string {
	var statusErr *clients.StatusError
	switch {
	case errors.Is(err, errUnknownCategory):
		return "validation"
	case errors.Is(err, clients.ErrAuthFailed):
		return "auth"
	case errors.As(err, &statusErr):
		return "server"
	default:
		return "transport"
	}
}
