package tenantsql

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// maxIdentLen es el largo máximo de identificador en PostgreSQL (NAMEDATALEN-1).
// MySQL admite 64, así que 63 sirve para ambos.
const maxIdentLen = 63

// ErrInvalidAudience indica que la audiencia no produce un nombre de base válido.
var ErrInvalidAudience = errors.New("tenantsql: invalid audience")

// DatabaseName traduce una audiencia a un nombre de base seguro: minúsculas,
// [a-z0-9_] y como mucho 63 caracteres.
//
// Si la sanitización pierde información (mayúsculas, puntos, guiones...) se
// agrega un sufijo con 8 hex del SHA-256 de la audiencia original, de modo que
// dos audiencias distintas nunca compartan base.
func DatabaseName(prefix, audience string) (string, error) {
	raw := strings.TrimSpace(audience)
	if raw == "" {
		return "", ErrInvalidAudience
	}

	body := sanitize(raw)
	if strings.Trim(body, "_") == "" {
		return "", ErrInvalidAudience
	}
	lossy := body != raw

	name := sanitize(prefix) + body
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
		lossy = true
	}

	if !lossy && len(name) <= maxIdentLen {
		return name, nil
	}

	suffix := "_" + shortHash(raw)
	if len(name)+len(suffix) > maxIdentLen {
		name = name[:maxIdentLen-len(suffix)]
	}
	return strings.TrimRight(name, "_") + suffix, nil
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			b.WriteRune(r)
			lastUnderscore = true
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return b.String()
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:4])
}
