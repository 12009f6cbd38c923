package kana

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Syllable is a single folded hiragana mora used as the chain key.
type Syllable rune

// None marks the absence of a readable syllable.
const None Syllable = 0

const (
	hiraganaFirst = 'ぁ' // U+3041
	hiraganaLast  = 'ゖ' // U+3096
	katakanaFirst = 'ァ' // U+30A1
	katakanaLast  = 'ヶ' // U+30F6
	katakanaShift = katakanaFirst - hiraganaFirst

	prolongedSound = 'ー'
)

// String renders the syllable, or an empty string for None.
func (s Syllable) String() string {
	if s == None {
		return ""
	}
	return string(rune(s))
}

// foldTable collapses small, voiced and semi-voiced kana onto their base form.
var foldTable = map[rune]rune{
	'ぁ': 'あ', 'ぃ': 'い', 'ぅ': 'う', 'ぇ': 'え', 'ぉ': 'お',
	'っ': 'つ', 'ゃ': 'や', 'ゅ': 'ゆ', 'ょ': 'よ', 'ゎ': 'わ',
	'ゕ': 'か', 'ゖ': 'け',
	'が': 'か', 'ぎ': 'き', 'ぐ': 'く', 'げ': 'け', 'ご': 'こ',
	'ざ': 'さ', 'じ': 'し', 'ず': 'す', 'ぜ': 'せ', 'ぞ': 'そ',
	'だ': 'た', 'ぢ': 'ち', 'づ': 'つ', 'で': 'て', 'ど': 'と',
	'ば': 'は', 'び': 'ひ', 'ぶ': 'ふ', 'べ': 'へ', 'ぼ': 'ほ',
	'ぱ': 'は', 'ぴ': 'ひ', 'ぷ': 'ふ', 'ぺ': 'へ', 'ぽ': 'ほ',
	'ゔ': 'う',
}

// Alphabet enumerates every rune accepted as a syllable before folding.
func Alphabet() []rune {
	out := make([]rune, 0, hiraganaLast-hiraganaFirst+1)
	for r := rune(hiraganaFirst); r <= hiraganaLast; r++ {
		out = append(out, r)
	}
	return out
}

// InAlphabet reports whether r is a hiragana syllable.
func InAlphabet(r rune) bool {
	return r >= hiraganaFirst && r <= hiraganaLast
}

// ToHiragana converts katakana (including half-width forms) to hiragana.
func ToHiragana(text string) string {
	normalized := strings.ToLower(norm.NFKC.String(text))
	return strings.Map(func(r rune) rune {
		if r >= katakanaFirst && r <= katakanaLast {
			return r - katakanaShift
		}
		return r
	}, normalized)
}

// Canonical returns the comparison form of a word: trimmed hiragana.
func Canonical(word string) string {
	return strings.TrimSpace(ToHiragana(word))
}

// Fold maps a syllable onto its base form. The prolonged sound mark folds to None.
func Fold(s Syllable) Syllable {
	r := rune(s)
	if r == prolongedSound {
		return None
	}
	if r >= katakanaFirst && r <= katakanaLast {
		r -= katakanaShift
	}
	if base, ok := foldTable[r]; ok {
		return Syllable(base)
	}
	return Syllable(r)
}

// FirstSyllable returns the folded first kana of word, or None.
func FirstSyllable(word string) Syllable {
	for _, r := range ToHiragana(word) {
		if s, ok := syllableOf(r); ok {
			return s
		}
	}
	return None
}

// LastSyllable returns the folded last kana of word, skipping ー and spaces, or None.
func LastSyllable(word string) Syllable {
	runes := []rune(ToHiragana(word))
	for i := len(runes) - 1; i >= 0; i-- {
		if s, ok := syllableOf(runes[i]); ok {
			return s
		}
	}
	return None
}

func syllableOf(r rune) (Syllable, bool) {
	if r == prolongedSound || unicode.IsSpace(r) || !InAlphabet(r) {
		return None, false
	}
	folded := Fold(Syllable(r))
	return folded, folded != None
}
