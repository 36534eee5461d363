package record

import (
	"bytes"
	"fmt"

	"logindb/pkg"
)

// Key is the identity a record is searched and upserted by.
type Key struct {
	Kind Kind
	ID   [ID_SIZE]byte
	Line [LINE_SIZE]byte
}

func KeyOf(r *Record) Key {
	return Key{Kind: r.Kind, ID: r.ID, Line: r.Line}
}

// NewKey builds a key from strings, truncating them to their slot widths.
func NewKey(kind Kind, id, line string) Key {
	k := Key{Kind: kind}
	pkg.PutString(k.ID[:], id)
	pkg.PutString(k.Line[:], line)
	return k
}

// Validate rejects kinds outside RUN_LVL..DEAD_PROCESS.
func (k Key) Validate() error {
	if k.Kind.IsTimeless() || k.Kind.IsProcess() {
		return nil
	}
	return fmt.Errorf("%w: kind %s", ErrInvalidKey, k.Kind)
}

/*
 * Matches reports whether candidate occupies the slot identified by k.
 *
 * RUN_LVL, BOOT_TIME, NEW_TIME and OLD_TIME match on type alone.
 * Process entries need a process candidate and then either equal non-empty
 * ids, compared up to the first NUL, or, when one id is empty, the search
 * line. Some writers store the terminal name in ut_id, so the line is checked
 * against the candidate id first and then against the candidate line.
 */
func (k Key) Matches(candidate *Record) bool {
	switch {
	case k.Kind.IsTimeless():
		return candidate.Kind == k.Kind
	case k.Kind.IsProcess():
		if !candidate.Kind.IsProcess() {
			return false
		}
		id := pkg.CString(k.ID[:])
		if id != "" && candidate.ID[0] != 0 {
			return id == pkg.CString(candidate.ID[:])
		}
		line := pkg.CString(k.Line[:])
		if pkg.CString(candidate.ID[:]) == line {
			return true
		}
		return line != "" && pkg.CString(candidate.Line[:]) == line
	default:
		return false
	}
}

// IsLoginOnLine reports whether r is a LOGIN or USER entry on line.
func IsLoginOnLine(r *Record, line [LINE_SIZE]byte) bool {
	return (r.Kind == UserProcess || r.Kind == LoginProcess) && pkg.CString(r.Line[:]) == pkg.CString(line[:])
}

// Digest returns the bytes that identify the key for caching purposes.
func (k Key) Digest(w Width) []byte {
	var b bytes.Buffer
	b.WriteByte(byte(w))
	switch {
	case k.Kind.IsTimeless():
		b.WriteByte(byte(k.Kind))
	default:
		b.WriteByte('p')
		b.WriteString(pkg.CString(k.ID[:]))
		b.WriteByte(0)
		b.WriteString(pkg.CString(k.Line[:]))
	}
	return b.Bytes()
}
