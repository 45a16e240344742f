package report

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups findings within a document.
type Category int

const (
	CategoryFile Category = iota
	CategoryFormat
	CategoryAudio
	CategoryMetadata
	CategoryError

	numCategories = int(CategoryError) + 1
)

// Categories lists every category in rendering order.
var Categories = []Category{CategoryFile, CategoryFormat, CategoryAudio, CategoryMetadata, CategoryError}

func (c Category) String() string {
	switch c {
	case CategoryFile:
		return "file"
	case CategoryFormat:
		return "format"
	case CategoryAudio:
		return "audio"
	case CategoryMetadata:
		return "metadata"
	case CategoryError:
		return "error"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Title returns the display heading for the category.
func (c Category) Title() string {
	return cases.Title(language.English).String(c.String())
}

func (c Category) valid() bool {
	return c >= CategoryFile && int(c) < numCategories
}

// Document selects one of the two report documents.
type Document int

const (
	Validation Document = iota
	Information
)

func (d Document) String() string {
	if d == Information {
		return "information"
	}
	return "validation"
}
