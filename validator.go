package csvingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// statInput validates an input path and returns its file info.
// A missing path is ErrNotFound; a directory is a ValidationError.
func statInput(path string) (os.FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &ValidationError{Field: "path", Reason: "path cannot be empty"}
	}
	if strings.Contains(path, "\x00") {
		return nil, &ValidationError{Field: "path", Reason: "path contains a null byte"}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIO, path, err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Field: "path", Reason: path + " is a directory"}
	}
	return info, nil
}

// validateDelimiter checks that a delimiter is exactly one single-byte character
func validateDelimiter(delimiter string) (rune, error) {
	if len(delimiter) != 1 {
		return 0, &ValidationError{
			Field:  "delimiter",
			Reason: fmt.Sprintf("must be exactly one character, got %q", delimiter),
		}
	}
	return validateDelimiterRune(rune(delimiter[0]))
}

// validateDelimiterRune checks a delimiter rune against what the tokenizer accepts
func validateDelimiterRune(r rune) (rune, error) {
	if r >= utf8.RuneSelf || r == 0 || r == '"' || r == '\r' || r == '\n' {
		return 0, &ValidationError{
			Field:  "delimiter",
			Reason: fmt.Sprintf("%q cannot be used as a delimiter", r),
		}
	}
	return r, nil
}

// validateQuote checks the quote character
func validateQuote(r rune) error {
	if r != '"' {
		return &ValidationError{
			Field:  "quote_char",
			Reason: fmt.Sprintf("only '\"' is supported, got %q", r),
		}
	}
	return nil
}
