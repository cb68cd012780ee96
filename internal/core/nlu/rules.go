package nlu

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// RuleSet groups every table the normalizer and extractors consult.
type RuleSet struct {
	Phonetic     *RuleTable
	ProductTypes *RuleTable
	Mishear      *RuleTable
	PhoneticMap  *RuleTable
	Fillers      *regexp.Regexp
	Plurals      *RuleTable
	KnownTerms   []string
	SpokenDigits map[string]string
	Synonyms     map[string]string
}

var defaultPhonetic = []Rule{
	{Pattern: `\bto\b`, Replacement: "2"},
	{Pattern: `\btoo\b`, Replacement: "2"},
	{Pattern: `\btwo\b`, Replacement: "2"},
	{Pattern: `\bfor\b`, Replacement: "4"},
	{Pattern: `\bfour\b`, Replacement: "4"},
	{Pattern: `\bzero\b`, Replacement: "0"},
	{Pattern: `\boh\b`, Replacement: "0"},
}

var defaultProductTypes = []Rule{
	{Pattern: `\bcommercial broad loom\b`, Replacement: "commercial broadloom"},
	{Pattern: `\bresidential broad loom\b`, Replacement: "residential broadloom"},
	{Pattern: `\bbroad loom\b`, Replacement: "broadloom"},
	{Pattern: `\bvinyll?\b`, Replacement: "vinyl"},
	{Pattern: `\bceremic\b`, Replacement: "ceramic"},
	{Pattern: `\bgranitt?\b`, Replacement: "granite"},
}

// Mishear corrections match as plain substrings. Order matters: "bosh" runs
// before "boshh" and "boschh" so that both collapse to "bosch".
var defaultMishear = []Rule{
	// brands
	{Pattern: "cartridge", Replacement: "godrej", Literal: true},
	{Pattern: "god rage", Replacement: "godrej", Literal: true},
	{Pattern: "god rageh", Replacement: "godrej", Literal: true},
	{Pattern: "goodridge", Replacement: "godrej", Literal: true},
	{Pattern: "dewalt", Replacement: "dewalt", Literal: true},
	{Pattern: "default", Replacement: "dewalt", Literal: true},
	{Pattern: "maketa", Replacement: "makita", Literal: true},
	{Pattern: "makeda", Replacement: "makita", Literal: true},
	{Pattern: "hitachi", Replacement: "hitachi", Literal: true},
	{Pattern: "hitache", Replacement: "hitachi", Literal: true},
	{Pattern: "heavens", Replacement: "havells", Literal: true},
	{Pattern: "keto", Replacement: "kito", Literal: true},
	{Pattern: "stan lee", Replacement: "stanley", Literal: true},
	{Pattern: "stanly", Replacement: "stanley", Literal: true},
	{Pattern: "bosh", Replacement: "bosch", Literal: true},
	{Pattern: "boshh", Replacement: "bosch", Literal: true},
	{Pattern: "boschh", Replacement: "bosch", Literal: true},
	{Pattern: "gee", Replacement: "ge", Literal: true},
	{Pattern: "jee", Replacement: "ge", Literal: true},
	{Pattern: "3mr", Replacement: "3m", Literal: true},
	{Pattern: "3 m r", Replacement: "3m", Literal: true},
	{Pattern: "3 m g e", Replacement: "3m ge", Literal: true},
	{Pattern: "3mge", Replacement: "3m ge", Literal: true},
	// materials
	{Pattern: "steal", Replacement: "steel", Literal: true},
	{Pattern: "plastick", Replacement: "plastic", Literal: true},
	{Pattern: "wooden", Replacement: "wood", Literal: true},
	{Pattern: "iron", Replacement: "steel", Literal: true},
	{Pattern: "fiber", Replacement: "fibre", Literal: true},
	// colors
	{Pattern: "read", Replacement: "red", Literal: true},
	{Pattern: "blew", Replacement: "blue", Literal: true},
	{Pattern: "blak", Replacement: "black", Literal: true},
	{Pattern: "wite", Replacement: "white", Literal: true},
	{Pattern: "grey", Replacement: "gray", Literal: true},
	{Pattern: "ash", Replacement: "gray", Literal: true},
	{Pattern: "sliver", Replacement: "silver", Literal: true},
	{Pattern: "golden", Replacement: "gold", Literal: true},
	// categories
	{Pattern: "grinder machine", Replacement: "grinder", Literal: true},
	{Pattern: "drill machine", Replacement: "drill", Literal: true},
	{Pattern: "hand tool", Replacement: "tools", Literal: true},
	{Pattern: "paint brush", Replacement: "brush", Literal: true},
}

var defaultPhoneticMap = []Rule{
	{Pattern: `(?i)\b3mr\b`, Replacement: "3m or"},
	{Pattern: `(?i)\b3m\s*r\b`, Replacement: "3m or"},
	{Pattern: `(?i)\b3m\s*\+\s*g\b`, Replacement: "3m + ge"},
	{Pattern: `(?i)\b3m\s*g\b`, Replacement: "3m ge"},
	{Pattern: `(?i)\bgod\s*rej\b`, Replacement: "godrej"},
	{Pattern: `(?i)\bgod\s*rage\b`, Replacement: "godrej"},
	{Pattern: `(?i)\bgod\s*raj\b`, Replacement: "godrej"},
	{Pattern: `(?i)\bboshh?\b`, Replacement: "bosch"},
	{Pattern: `(?i)\bdew\s*all\b`, Replacement: "dewalt"},
	{Pattern: `(?i)\bstan\s*lee\b`, Replacement: "stanley"},
	{Pattern: `(?i)\bgee\b`, Replacement: "ge"},
	{Pattern: `(?i)\bjee\b`, Replacement: "ge"},
	{Pattern: `(?i)\bcartridgee?\b`, Replacement: "cartridge"},
	{Pattern: `(?i)\bcanceled\b`, Replacement: "cancelled"},
	{Pattern: `(?i)\bcanceling\b`, Replacement: "cancelling"},
	{Pattern: `(?i)\bcancel\b`, Replacement: "cancel"},
}

var defaultPlurals = []Rule{
	{Pattern: `\bproducts\b`, Replacement: "product"},
	{Pattern: `\borders\b`, Replacement: "order"},
}

const defaultFillers = `\b(the|a|an|please|kindly|show|get|give|list|display|find|all of|of)\b`

var defaultKnownTerms = []string{
	"3m", "bosch", "dewalt", "makita", "godrej", "havells", "hitachi", "stanley", "kito", "ge",
	"steel", "plastic", "wood", "fibre",
	"red", "blue", "black", "white", "gray", "silver", "gold",
	"grinder", "drill", "brush", "tools", "broadloom", "vinyl", "ceramic", "granite",
}

var defaultSpokenDigits = map[string]string{
	"zero":  "0",
	"oh":    "0",
	"one":   "1",
	"two":   "2",
	"to":    "2",
	"too":   "2",
	"three": "3",
	"four":  "4",
	"for":   "4",
	"five":  "5",
	"six":   "6",
	"seven": "7",
	"eight": "8",
	"nine":  "9",
}

var defaultSynonyms = map[string]string{
	"manufacturer": "brand",
	"make":         "brand",
	"fabric":       "material",
	"substance":    "material",
	"colour":       "color",
	"tone":         "color",
}

// DefaultRuleSet returns the built-in tables.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Phonetic:     MustRuleTable("phonetic", defaultPhonetic),
		ProductTypes: MustRuleTable("product_types", defaultProductTypes),
		Mishear:      MustRuleTable("mishear", defaultMishear),
		PhoneticMap:  MustRuleTable("phonetic_map", defaultPhoneticMap),
		Plurals:      MustRuleTable("plurals", defaultPlurals),
		Fillers:      regexp.MustCompile(defaultFillers),
		KnownTerms:   append([]string(nil), defaultKnownTerms...),
		SpokenDigits: copyMap(defaultSpokenDigits),
		Synonyms:     copyMap(defaultSynonyms),
	}
}

type ruleFile struct {
	Phonetic     []Rule            `yaml:"phonetic"`
	ProductTypes []Rule            `yaml:"product_types"`
	Mishear      []Rule            `yaml:"mishear"`
	PhoneticMap  []Rule            `yaml:"phonetic_map"`
	Fillers      string            `yaml:"fillers"`
	KnownTerms   []string          `yaml:"known_terms"`
	SpokenDigits map[string]string `yaml:"spoken_digits"`
	Synonyms     map[string]string `yaml:"synonyms"`
}

// LoadRuleSet reads a YAML overlay on top of DefaultRuleSet. A table present
// in the file replaces the built-in table of the same name; known terms,
// spoken digits and synonyms are added to the defaults.
func LoadRuleSet(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRuleSet(raw)
}

// ParseRuleSet applies a YAML overlay document to the built-in tables.
func ParseRuleSet(raw []byte) (RuleSet, error) {
	set := DefaultRuleSet()
	var file ruleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return RuleSet{}, fmt.Errorf("decode rules file: %w", err)
	}

	overlays := []struct {
		name  string
		rules []Rule
		dst   **RuleTable
	}{
		{"phonetic", file.Phonetic, &set.Phonetic},
		{"product_types", file.ProductTypes, &set.ProductTypes},
		{"mishear", file.Mishear, &set.Mishear},
		{"phonetic_map", file.PhoneticMap, &set.PhoneticMap},
	}
	for _, o := range overlays {
		if len(o.rules) == 0 {
			continue
		}
		table, err := NewRuleTable(o.name, o.rules)
		if err != nil {
			return RuleSet{}, err
		}
		*o.dst = table
	}

	if file.Fillers != "" {
		re, err := regexp.Compile(file.Fillers)
		if err != nil {
			return RuleSet{}, fmt.Errorf("compile fillers: %w", err)
		}
		set.Fillers = re
	}
	set.KnownTerms = append(set.KnownTerms, file.KnownTerms...)
	for k, v := range file.SpokenDigits {
		set.SpokenDigits[k] = v
	}
	for k, v := range file.Synonyms {
		set.Synonyms[k] = v
	}
	return set, nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
