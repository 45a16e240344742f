package validator

import (
	"context"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"audiocheck/internal/audio"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

const forbiddenNameChars = `<>:"/\|?*`

// Filename applies naming rules to the display name. It needs no audio.
type Filename struct {
	Base

	extensions []string
	pattern    string
	maxLength  int
}

func newFilename(deps Deps) Validator {
	f := &Filename{Base: newBase(IDFilename, deps)}
	v := f.settings.For(IDFilename)
	f.extensions = v.Strings("extensions", []string{".mp3"})
	f.pattern = v.String("pattern", "")
	f.maxLength = v.Int("max_length", 128)
	return f
}

func (f *Filename) Initialize(_ context.Context, file File, rep *report.Report) error {
	f.bind(file, rep)
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}

	ext := filepath.Ext(name)
	extOK := len(f.extensions) == 0 || slices.ContainsFunc(f.extensions, func(allowed string) bool {
		return strings.EqualFold(allowed, ext)
	})
	if err := f.Record("filename.extension", report.CategoryFile, pass(extOK), settings.MsgExtension, ext, strings.Join(f.extensions, ", ")); err != nil {
		return err
	}

	if f.pattern != "" {
		re, err := regexp.Compile(f.pattern)
		if err != nil {
			if err := f.Record("filename.pattern", report.CategoryFile, report.Incomplete, settings.MsgPatternInvalid, f.pattern, err); err != nil {
				return err
			}
		} else if err := f.Record("filename.pattern", report.CategoryFile, pass(re.MatchString(name)), settings.MsgPattern); err != nil {
			return err
		}
	}

	length := utf8.RuneCountInString(name)
	if err := f.Record("filename.length", report.CategoryFile, pass(f.maxLength <= 0 || length <= f.maxLength), settings.MsgNameLength, length, f.maxLength); err != nil {
		return err
	}

	if bad := badCharacters(name); bad != "" {
		if err := f.Record("filename.characters", report.CategoryFile, report.Fail, settings.MsgCharacters, bad); err != nil {
			return err
		}
	}
	if strings.TrimSpace(name) != name {
		return f.Record("filename.characters", report.CategoryFile, report.Warn, settings.MsgWhitespace)
	}
	return nil
}

func (f *Filename) BeginAnalysis(context.Context, audio.Header, []Validator) error {
	return nil
}

func (f *Filename) EndAnalysis(context.Context) error {
	return nil
}

// badCharacters lists forbidden and control characters once each, quoted.
func badCharacters(name string) string {
	var seen []rune
	for _, r := range name {
		if (strings.ContainsRune(forbiddenNameChars, r) || unicode.IsControl(r) || r == utf8.RuneError) && !slices.Contains(seen, r) {
			seen = append(seen, r)
		}
	}
	if len(seen) == 0 {
		return ""
	}
	parts := make([]string, len(seen))
	for i, r := range seen {
		parts[i] = strconv.QuoteRune(r)
	}
	return strings.Join(parts, " ")
}

func pass(ok bool) report.Validity {
	if ok {
		return report.Pass
	}
	return report.Fail
}
