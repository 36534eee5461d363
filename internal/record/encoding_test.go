package record

import (
	"bytes"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logindb/pkg"
)

func sampleRecord() Record {
	var r Record
	r.Kind = UserProcess
	r.PID = 4242
	r.SetLine("pts/3")
	r.SetID("ts/3")
	r.SetUser("albert")
	r.SetHost("workstation.example.org")
	r.Exit = ExitStatus{Termination: 15, Exit: 2}
	r.Session = 77
	r.Time = Timeval{Sec: 1700000000, Usec: 123456}
	r.SetIP(net.ParseIP("192.168.0.9"))
	return r
}

func TestWidth_Size(t *testing.T) {
	assert.Equal(t, 384, Narrow.Size())
	assert.Equal(t, 400, Wide.Size())
	assert.Equal(t, 340, narrowOffSec)
	assert.Equal(t, 348, narrowOffAddr)
	assert.Equal(t, 344, wideOffSec)
	assert.Equal(t, 360, wideOffAddr)
}

func TestRecord_MarshalTo(t *testing.T) {
	tests := []struct {
		name string
		args struct {
			width      Width
			bufferSize int
		}
		want struct {
			bytesWritten int
			err          error
		}
		wantErr bool
	}{
		{
			name: "wide exact buffer",
			args: struct {
				width      Width
				bufferSize int
			}{width: Wide, bufferSize: WIDE_SIZE},
			want: struct {
				bytesWritten int
				err          error
			}{bytesWritten: WIDE_SIZE},
		},
		{
			name: "narrow larger buffer",
			args: struct {
				width      Width
				bufferSize int
			}{width: Narrow, bufferSize: 1024},
			want: struct {
				bytesWritten int
				err          error
			}{bytesWritten: NARROW_SIZE},
		},
		{
			name: "wide buffer too small",
			args: struct {
				width      Width
				bufferSize int
			}{width: Wide, bufferSize: NARROW_SIZE},
			want: struct {
				bytesWritten int
				err          error
			}{err: ErrInsufficientBuffer},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			buf := make([]byte, tt.args.bufferSize)
			got, err := r.MarshalTo(buf, tt.args.width)

			if tt.wantErr {
				assert.ErrorIs(t, err, tt.want.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.bytesWritten, got)

			var back Record
			require.NoError(t, UnmarshalInto(buf, tt.args.width, &back))
			assert.Equal(t, r, back)
		})
	}
}

func TestMarshal_FieldOffsets(t *testing.T) {
	r := sampleRecord()

	wide := r.Marshal(Wide)
	assert.Equal(t, uint16(UserProcess), pkg.Encod.Uint16(wide[0:2]))
	assert.Equal(t, uint32(4242), pkg.Encod.Uint32(wide[4:8]))
	assert.Equal(t, "pts/3", pkg.CString(wide[8:40]))
	assert.Equal(t, "ts/3", string(wide[40:44]))
	assert.Equal(t, "albert", pkg.CString(wide[44:76]))
	assert.Equal(t, uint64(1700000000), pkg.Encod.Uint64(wide[344:352]))
	assert.Equal(t, uint32(123456), pkg.Encod.Uint32(wide[352:356]))
	assert.Equal(t, []byte{192, 168, 0, 9}, wide[360:364])

	narrow := r.Marshal(Narrow)
	assert.Equal(t, uint32(1700000000), pkg.Encod.Uint32(narrow[340:344]))
	assert.Equal(t, uint32(123456), pkg.Encod.Uint32(narrow[344:348]))
	assert.Equal(t, []byte{192, 168, 0, 9}, narrow[348:352])
	assert.True(t, bytes.Equal(wide[:340], narrow[:340]))
}

func TestUnmarshalInto_ShortBuffer(t *testing.T) {
	var r Record
	assert.ErrorIs(t, UnmarshalInto(make([]byte, NARROW_SIZE), Wide, &r), ErrInsufficientBuffer)
	assert.NoError(t, UnmarshalInto(make([]byte, NARROW_SIZE), Narrow, &r))
}

func TestConvert_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		sec     int64
		wantSec int64
	}{
		{name: "fits in 32 bits", sec: 1700000000, wantSec: 1700000000},
		{name: "negative", sec: -86400, wantSec: -86400},
		{name: "zero", sec: 0, wantSec: 0},
		{name: "past 2038 truncates", sec: math.MaxInt32 + 10, wantSec: -2147483639},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			r.Time.Sec = tt.sec

			back, err := Unmarshal(WideFromNarrow(NarrowFromWide(r.Marshal(Wide))), Wide)
			require.NoError(t, err)

			want := r
			want.Time.Sec = tt.wantSec
			assert.Equal(t, want, *back)
		})
	}
}

func TestConvert_NarrowToWideIsLossless(t *testing.T) {
	r := sampleRecord()
	narrow := r.Marshal(Narrow)

	assert.Equal(t, narrow, NarrowFromWide(WideFromNarrow(narrow)))

	back, err := Unmarshal(WideFromNarrow(narrow), Wide)
	require.NoError(t, err)
	assert.Equal(t, r, *back)
}

func TestConvert_ShortInputIsPadded(t *testing.T) {
	out := NarrowFromWide([]byte{byte(BootTime), 0})
	require.Len(t, out, NARROW_SIZE)
	assert.Equal(t, BootTime, Kind(pkg.Encod.Uint16(out[0:2])))

	out = WideFromNarrow(nil)
	require.Len(t, out, WIDE_SIZE)
	assert.Equal(t, Empty, Kind(pkg.Encod.Uint16(out[0:2])))
}

func TestRecord_StringHelpers(t *testing.T) {
	var r Record
	r.SetUser("a-very-long-user-name-that-does-not-fit-in-32-bytes")
	assert.Equal(t, "a-very-long-user-name-that-does-", r.UserString())

	r.SetUser("bob")
	assert.Equal(t, "bob", r.UserString())
	assert.Equal(t, byte(0), r.User[3])

	r.SetID("12345")
	assert.Equal(t, "1234", r.IDString())

	ts := time.Unix(1600000000, 250*int64(time.Microsecond))
	r.SetTimestamp(ts)
	assert.True(t, ts.Equal(r.Timestamp()))

	r.SetIP(net.ParseIP("2001:db8::1"))
	assert.True(t, net.ParseIP("2001:db8::1").Equal(r.IP()))
	r.SetIP(net.ParseIP("10.0.0.1"))
	assert.True(t, net.ParseIP("10.0.0.1").Equal(r.IP()))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "USER_PROCESS", UserProcess.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, DeadProcess.IsProcess())
	assert.False(t, BootTime.IsProcess())
	assert.True(t, ClockSetBackward.IsTimeless())
}
