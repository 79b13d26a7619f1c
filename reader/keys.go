package reader

// Scancodes with special meaning to the decoder.
const (
	keyEnter  = 28
	keyLShift = 42
	keyRShift = 54
)

var unshifted = map[uint16]rune{
	2: '1', 3: '2', 4: '3', 5: '4', 6: '5', 7: '6', 8: '7', 9: '8', 10: '9', 11: '0',
	12: '-', 13: '=',
	16: 'q', 17: 'w', 18: 'e', 19: 'r', 20: 't', 21: 'y', 22: 'u', 23: 'i', 24: 'o', 25: 'p',
	26: '[', 27: ']',
	30: 'a', 31: 's', 32: 'd', 33: 'f', 34: 'g', 35: 'h', 36: 'j', 37: 'k', 38: 'l',
	39: ';', 40: '"', 41: '`', 43: '\\',
	44: 'z', 45: 'x', 46: 'c', 47: 'v', 48: 'b', 49: 'n', 50: 'm',
	51: ',', 52: '.', 53: '/',
}

var shifted = map[uint16]rune{
	2: '!', 3: '@', 4: '#', 5: '$', 6: '%', 7: '^', 8: '&', 9: '*', 10: '(', 11: ')',
	12: '_', 13: '+',
	16: 'Q', 17: 'W', 18: 'E', 19: 'R', 20: 'T', 21: 'Y', 22: 'U', 23: 'I', 24: 'O', 25: 'P',
	26: '{', 27: '}',
	30: 'A', 31: 'S', 32: 'D', 33: 'F', 34: 'G', 35: 'H', 36: 'J', 37: 'K', 38: 'L',
	39: ':', 40: '\'', 41: '~', 43: '|',
	44: 'Z', 45: 'X', 46: 'C', 47: 'V', 48: 'B', 49: 'N', 50: 'M',
	51: '<', 52: '>', 53: '?',
	57: ' ',
}

// KeyDecoder turns a keyboard reader's key events into badge strings.
// Shift applies to the next key only. The zero value is ready to use.
type KeyDecoder struct {
	shift bool
	buf   []rune
}

// Feed consumes one key event. It returns the accumulated string and true
// when Enter is pressed.
func (k *KeyDecoder) Feed(code uint16, down bool) (string, bool) {
	if !down {
		return "", false
	}
	switch code {
	case keyLShift, keyRShift:
		k.shift = true
		return "", false
	case keyEnter:
		s := string(k.buf)
		k.Reset()
		return s, true
	}

	table := unshifted
	if k.shift {
		table = shifted
	}
	k.shift = false
	if r, ok := table[code]; ok {
		k.buf = append(k.buf, r)
	}
	return "", false
}

// Reset discards any partial read.
func (k *KeyDecoder) Reset() {
	k.shift = false
	k.buf = k.buf[:0]
}
