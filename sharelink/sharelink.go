package sharelink

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/billbatista/splitmate/ledger"
	lzstring "github.com/daku10/go-lz-string"
	"golang.org/x/crypto/blake2b"
)

const (
	// maxTokenSize bounds the token accepted before decompression.
	maxTokenSize = 256 << 10
	// maxStateSize bounds the JSON a token may decompress to.
	maxStateSize = 1 << 20
)

var ErrInvalidToken = errors.New("invalid share token")

// Encode packs the whole event into an lz-string EncodedURIComponent token,
// the same form the web app puts in its ?s= share links.
func Encode(e ledger.Event) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding event: %w", err)
	}
	token, err := lzstring.CompressToEncodedURIComponent(string(raw))
	if err != nil {
		return "", fmt.Errorf("compressing event: %w", err)
	}
	return token, nil
}

// Decode accepts a token as Encode returns it or percent-escaped once more,
// as it appears in a copied share link.
func Decode(token string) (ledger.Event, error) {
	if len(token) > maxTokenSize {
		return ledger.Event{}, fmt.Errorf("%w: token too large", ErrInvalidToken)
	}
	if strings.Contains(token, "%") {
		unescaped, err := url.PathUnescape(token)
		if err != nil {
			return ledger.Event{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		token = unescaped
	}

	raw, err := lzstring.DecompressFromEncodedURIComponent(token)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if raw == "" {
		return ledger.Event{}, fmt.Errorf("%w: empty state", ErrInvalidToken)
	}
	if len(raw) > maxStateSize {
		return ledger.Event{}, fmt.Errorf("%w: state too large", ErrInvalidToken)
	}

	var e ledger.Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return ledger.Event{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if e.ID == "" {
		return ledger.Event{}, fmt.Errorf("%w: missing event id", ErrInvalidToken)
	}
	if e.Participants == nil {
		e.Participants = []ledger.Participant{}
	}
	if e.Expenses == nil {
		e.Expenses = []ledger.Expense{}
	}
	return e, nil
}

// Digest fingerprints the event state. Equal events give equal digests.
func Digest(e ledger.Event) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding event: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
