package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the ISO 639-2 code for tracks with no language metadata.
const Undetermined = "und"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2/T (3-letter)
	alt3    string   // ISO 639-2/B alternate used by Matroska (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

// Disc authoring tools still emit bibliographic codes, which x/text does not
// parse, so the common ones are mapped here first.
var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"fa", "fas", "per", "Persian", []string{"persian"}},
	{"ro", "ron", "rum", "Romanian", []string{"romanian"}},
	{"sk", "slk", "slo", "Slovak", []string{"slovak"}},
	{"is", "isl", "ice", "Icelandic", []string{"icelandic"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize converts any recognized language code, IETF tag or English word
// to its ISO 639-2/T form. Empty or unrecognized input yields "und" so that
// missing metadata is always treated as undetermined.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Undetermined {
		return Undetermined
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if base, err := xlanguage.ParseBase(code); err == nil {
		if iso := base.ISO3(); iso != "" && iso != Undetermined {
			return iso
		}
	}
	if tag, err := xlanguage.Parse(code); err == nil {
		base, _ := tag.Base()
		if iso := base.ISO3(); iso != "" && iso != Undetermined {
			return iso
		}
	}
	if len(code) == 3 {
		return code
	}
	return Undetermined
}

// IsUndetermined reports whether code carries no usable language.
func IsUndetermined(code string) bool {
	return Normalize(code) == Undetermined
}

// Equal compares two language codes after normalization, so "ger", "deu" and
// "de" all match.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for undetermined input.
func DisplayName(code string) string {
	normalized := Normalize(code)
	if normalized == Undetermined {
		return "Unknown"
	}
	if e := lookup(normalized); e != nil {
		return e.display
	}
	if base, err := xlanguage.ParseBase(normalized); err == nil {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(normalized)
}

// NormalizeList deduplicates and normalizes a list of language codes,
// dropping undetermined entries.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		n := Normalize(code)
		if n == Undetermined {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	return normalized
}

// Contains reports whether code matches any entry of set after normalization.
func Contains(set []string, code string) bool {
	target := Normalize(code)
	for _, candidate := range set {
		if Normalize(candidate) == target {
			return true
		}
	}
	return false
}
