package catalog

import (
	"bytes"
	"encoding/json"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// BookID identifies a book. Numeric ids coming from sources are kept in their decimal form.
type BookID string

// String returns the id as a plain string.
func (id BookID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both string and number ids.
func (id *BookID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := jsoniter.ConfigFastest.Unmarshal(data, &s); err != nil {
			return errors.Join(ErrInvalidBookID, err)
		}

		*id = BookID(s)

		return nil
	}

	var number json.Number
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &number); err != nil || number == "" {
		return ErrInvalidBookID
	}

	*id = BookID(number.String())

	return nil
}

// UnmarshalYAML accepts any scalar as id.
func (id *BookID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Value == "" {
		return ErrInvalidBookID
	}

	*id = BookID(node.Value)

	return nil
}

// Record is a book as reported by a Source, before normalization.
// A nil Available means the source did not state availability.
type Record struct {
	ID        BookID `json:"id"        yaml:"id"`
	Title     string `json:"title"     yaml:"title"`
	Author    string `json:"author"    yaml:"author"`
	Available *bool  `json:"available" yaml:"available"`
}

// recordFields is the wire shape of a Record. Feeds of the French catalog use
// titre, auteur and disponible; the English key wins when both are present.
type recordFields struct {
	ID         BookID  `json:"id"         yaml:"id"`
	Title      *string `json:"title"      yaml:"title"`
	Titre      *string `json:"titre"      yaml:"titre"`
	Author     *string `json:"author"     yaml:"author"`
	Auteur     *string `json:"auteur"     yaml:"auteur"`
	Available  *bool   `json:"available"  yaml:"available"`
	Disponible *bool   `json:"disponible" yaml:"disponible"`
}

func (f recordFields) record() Record {
	record := Record{ID: f.ID, Available: f.Available}

	if f.Title != nil {
		record.Title = *f.Title
	} else if f.Titre != nil {
		record.Title = *f.Titre
	}

	if f.Author != nil {
		record.Author = *f.Author
	} else if f.Auteur != nil {
		record.Author = *f.Auteur
	}

	if record.Available == nil {
		record.Available = f.Disponible
	}

	return record
}

// UnmarshalJSON decodes a record, accepting the titre, auteur and disponible aliases.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = fields.record()

	return nil
}

// UnmarshalYAML decodes a record, accepting the titre, auteur and disponible aliases.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	var fields recordFields
	if err := node.Decode(&fields); err != nil {
		return err
	}

	*r = fields.record()

	return nil
}

// Book is a normalized catalog entry.
// Available is the catalog flag only; whether a book can be borrowed right now also depends on the borrow ledger.
type Book struct {
	ID        BookID
	Title     string
	Author    string
	Available bool
}

// Normalize converts source records into books, treating a missing availability flag as available.
// The order of the records is preserved.
func Normalize(records []Record) []Book {
	books := make([]Book, 0, len(records))

	for _, record := range records {
		available := true
		if record.Available != nil {
			available = *record.Available
		}

		books = append(books, Book{
			ID:        record.ID,
			Title:     record.Title,
			Author:    record.Author,
			Available: available,
		})
	}

	return books
}

// Availability returns a pointer to the given flag, for building records in sources and tests.
func Availability(available bool) *bool {
	return &available
}
