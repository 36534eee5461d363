package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(kind Kind, id, line, user string) *Record {
	r := &Record{Kind: kind}
	r.SetID(id)
	r.SetLine(line)
	r.SetUser(user)
	return r
}

func TestKey_Matches(t *testing.T) {
	tests := []struct {
		name      string
		key       Key
		candidate *Record
		want      bool
	}{
		{
			name:      "boot time matches on type",
			key:       NewKey(BootTime, "zz", "ignored"),
			candidate: entry(BootTime, "", "", ""),
			want:      true,
		},
		{
			name:      "run level does not match boot time",
			key:       NewKey(RunLevelChange, "", ""),
			candidate: entry(BootTime, "", "", ""),
			want:      false,
		},
		{
			name:      "equal ids",
			key:       NewKey(UserProcess, "p0", "somewhere"),
			candidate: entry(DeadProcess, "p0", "ttyp0", ""),
			want:      true,
		},
		{
			name:      "different ids do not fall back to line",
			key:       NewKey(UserProcess, "p1", "ttyp0"),
			candidate: entry(UserProcess, "p0", "ttyp0", ""),
			want:      false,
		},
		{
			name:      "empty search id falls back to candidate line",
			key:       NewKey(LoginProcess, "", "tty1"),
			candidate: entry(LoginProcess, "1", "tty1", "LOGIN"),
			want:      true,
		},
		{
			name:      "empty candidate id compares search line with candidate id",
			key:       NewKey(UserProcess, "7", "tty7"),
			candidate: entry(DeadProcess, "", "tty7", ""),
			want:      true,
		},
		{
			name:      "legacy writer stored line in id",
			key:       NewKey(UserProcess, "", "p3"),
			candidate: entry(UserProcess, "p3", "other", ""),
			want:      true,
		},
		{
			name:      "bytes after the id terminator are ignored",
			key:       NewKey(UserProcess, "7", "tty9"),
			candidate: &Record{Kind: UserProcess, ID: [ID_SIZE]byte{'7', 0, 'x', 'y'}},
			want:      true,
		},
		{
			name:      "process key never matches timeless candidate",
			key:       NewKey(InitProcess, "", ""),
			candidate: entry(BootTime, "", "", ""),
			want:      false,
		},
		{
			name:      "empty kind never matches",
			key:       NewKey(Empty, "", ""),
			candidate: entry(Empty, "", "", ""),
			want:      false,
		},
		{
			name:      "empty line does not match an empty candidate line",
			key:       NewKey(InitProcess, "", ""),
			candidate: entry(InitProcess, "si", "", ""),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Matches(tt.candidate))
		})
	}
}

func TestKey_Validate(t *testing.T) {
	for k := RunLevelChange; k <= DeadProcess; k++ {
		assert.NoError(t, NewKey(k, "", "").Validate(), k.String())
	}
	assert.ErrorIs(t, NewKey(Empty, "", "").Validate(), ErrInvalidKey)
	assert.ErrorIs(t, NewKey(AccountingEvent, "", "").Validate(), ErrInvalidKey)
	assert.ErrorIs(t, NewKey(Kind(77), "", "").Validate(), ErrInvalidKey)
}

func TestKey_Digest(t *testing.T) {
	a := NewKey(LoginProcess, "1", "tty1").Digest(Wide)
	b := NewKey(UserProcess, "1", "tty1").Digest(Wide)
	c := NewKey(UserProcess, "1", "tty1").Digest(Narrow)
	d := NewKey(BootTime, "1", "tty1").Digest(Wide)

	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)

	junk := KeyOf(&Record{Kind: UserProcess, ID: [ID_SIZE]byte{'1', 0, 'z', 'z'}, Line: fixedLine("tty1")})
	assert.Equal(t, b, junk.Digest(Wide))
	assert.NotEqual(t, a, d)
}

func TestIsLoginOnLine(t *testing.T) {
	var line [LINE_SIZE]byte
	copy(line[:], "tty2")

	assert.True(t, IsLoginOnLine(entry(UserProcess, "2", "tty2", "albert"), line))
	assert.True(t, IsLoginOnLine(entry(LoginProcess, "2", "tty2", "LOGIN"), line))
	assert.False(t, IsLoginOnLine(entry(DeadProcess, "2", "tty2", ""), line))
	assert.False(t, IsLoginOnLine(entry(UserProcess, "3", "tty3", ""), line))
}

func fixedLine(s string) (line [LINE_SIZE]byte) {
	copy(line[:], s)
	return line
}
