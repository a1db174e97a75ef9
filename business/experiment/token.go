package experiment

import (
	"strings"

	"github.com/pobyzaarif/goshortcute"
)

const tokenSeparator = "|"

// TokenCodec issues and reads the sticky variant token handed to clients
// (usually as a cookie). Tokens are AES-CBC encrypted so a client cannot
// choose its own variant. A codec without a key is disabled.
type TokenCodec struct {
	key []byte
}

func NewTokenCodec(key string) *TokenCodec {
	return &TokenCodec{key: []byte(key)}
}

func (c *TokenCodec) Enabled() bool {
	return c != nil && len(c.key) > 0
}

// Issue returns an opaque token naming variant of experiment.
func (c *TokenCodec) Issue(experiment, variant string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	enc, err := goshortcute.AESCBCEncrypt([]byte(experiment+tokenSeparator+variant), c.key)
	if err != nil {
		return "", err
	}
	return goshortcute.StringtoBase64Encode(enc), nil
}

// Parse reverses Issue. ok is false for anything that does not decrypt to an
// experiment/variant pair.
func (c *TokenCodec) Parse(token string) (experiment, variant string, ok bool) {
	if !c.Enabled() || token == "" {
		return "", "", false
	}
	// malformed ciphertext from clients must not take the request down
	defer func() {
		if r := recover(); r != nil {
			experiment, variant, ok = "", "", false
		}
	}()
	raw := goshortcute.StringtoBase64Decode(token)
	if raw == "" {
		return "", "", false
	}
	plain, err := goshortcute.AESCBCDecrypt([]byte(raw), c.key)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(plain, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
