package catalog

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strconv"
)

// CreateBookInput is the full field set for a new book. Image is attached
// only when binary content is provided.
type CreateBookInput struct {
	Title         string
	Author        string
	Price         float64
	Description   string
	StockQuantity int
	IsActive      bool
	Category      string // display name, resolved to an id before submit
	ISBN          string
	Publisher     string
	Image         []byte
	ImageName     string
}

// UpdateBookInput is a sparse patch: only non-nil fields are sent.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Price         *float64
	Description   *string
	StockQuantity *int
	IsActive      *bool
	Category      *string // display name of the new category
	ISBN          *string
	Publisher     *string
	Image         []byte
	ImageName     string
}

// buildCreateForm assembles the multipart payload for POST /books/.
func buildCreateForm(in CreateBookInput, categoryID string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":          in.Title,
		"author":         in.Author,
		"price":          strconv.FormatFloat(in.Price, 'f', -1, 64),
		"description":    in.Description,
		"stock_quantity": strconv.Itoa(in.StockQuantity),
		"is_active":      strconv.FormatBool(in.IsActive),
		"category_id":    categoryID,
	}
	if in.ISBN != "" {
		fields["isbn"] = in.ISBN
	}
	if in.Publisher != "" {
		fields["publisher"] = in.Publisher
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if len(in.Image) > 0 {
		if err := writeImage(w, in.Image, in.ImageName); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// buildPatchForm assembles the multipart payload for PATCH /books/{id}/,
// carrying only the fields present in the patch.
func buildPatchForm(in UpdateBookInput, categoryID string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	set := func(name string, value *string) error {
		if value == nil {
			return nil
		}
		return w.WriteField(name, *value)
	}
	if err := set("title", in.Title); err != nil {
		return nil, "", err
	}
	if err := set("author", in.Author); err != nil {
		return nil, "", err
	}
	if err := set("description", in.Description); err != nil {
		return nil, "", err
	}
	if err := set("isbn", in.ISBN); err != nil {
		return nil, "", err
	}
	if err := set("publisher", in.Publisher); err != nil {
		return nil, "", err
	}
	if in.Price != nil {
		if err := w.WriteField("price", strconv.FormatFloat(*in.Price, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}
	if in.StockQuantity != nil {
		if err := w.WriteField("stock_quantity", strconv.Itoa(*in.StockQuantity)); err != nil {
			return nil, "", err
		}
	}
	if in.IsActive != nil {
		if err := w.WriteField("is_active", strconv.FormatBool(*in.IsActive)); err != nil {
			return nil, "", err
		}
	}
	if categoryID != "" {
		if err := w.WriteField("category_id", categoryID); err != nil {
			return nil, "", err
		}
	}
	if len(in.Image) > 0 {
		if err := writeImage(w, in.Image, in.ImageName); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeImage(w *multipart.Writer, image []byte, name string) error {
	if name == "" {
		name = "cover.jpg"
	}
	fw, err := w.CreateFormFile("cover_image", name)
	if err != nil {
		return err
	}
	if _, err := fw.Write(image); err != nil {
		return fmt.Errorf("write cover image: %w", err)
	}
	return nil
}
