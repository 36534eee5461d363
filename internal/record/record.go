package record

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"logindb/pkg"
)

const LINE_SIZE = pkg.LenLine
const NAME_SIZE = pkg.LenName
const HOST_SIZE = pkg.LenHost
const ID_SIZE = pkg.LenID
const ADDR_SIZE = pkg.LenAddr

// Kind is the ut_type of a login record.
type Kind int16

const (
	Empty            Kind = 0
	RunLevelChange   Kind = 1
	BootTime         Kind = 2
	ClockSetForward  Kind = 3 // time after the clock changed
	ClockSetBackward Kind = 4 // time when the clock changed
	InitProcess      Kind = 5
	LoginProcess     Kind = 6
	UserProcess      Kind = 7
	DeadProcess      Kind = 8
	AccountingEvent  Kind = 9
)

var kindNames = [...]string{
	"EMPTY", "RUN_LVL", "BOOT_TIME", "NEW_TIME", "OLD_TIME",
	"INIT_PROCESS", "LOGIN_PROCESS", "USER_PROCESS", "DEAD_PROCESS", "ACCOUNTING",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int16(k))
}

// IsProcess reports whether k belongs to the process family
// (INIT, LOGIN, USER and DEAD).
func (k Kind) IsProcess() bool {
	return k == InitProcess || k == LoginProcess || k == UserProcess || k == DeadProcess
}

// IsTimeless reports whether k is matched by type alone.
func (k Kind) IsTimeless() bool {
	return k == RunLevelChange || k == BootTime || k == ClockSetForward || k == ClockSetBackward
}

type ExitStatus struct {
	Termination int16
	Exit        int16
}

type Timeval struct {
	Sec  int64
	Usec int32
}

// Record is the width independent view of one login record.
type Record struct {
	Kind    Kind
	PID     int32
	Line    [LINE_SIZE]byte
	ID      [ID_SIZE]byte
	User    [NAME_SIZE]byte
	Host    [HOST_SIZE]byte
	Exit    ExitStatus
	Session int32
	Time    Timeval
	Addr    [ADDR_SIZE]byte
}

func (r *Record) SetLine(s string) { pkg.PutString(r.Line[:], s) }
func (r *Record) SetID(s string)   { pkg.PutString(r.ID[:], s) }
func (r *Record) SetUser(s string) { pkg.PutString(r.User[:], s) }
func (r *Record) SetHost(s string) { pkg.PutString(r.Host[:], s) }

func (r *Record) LineString() string { return pkg.CString(r.Line[:]) }
func (r *Record) IDString() string   { return pkg.CString(r.ID[:]) }
func (r *Record) UserString() string { return pkg.CString(r.User[:]) }
func (r *Record) HostString() string { return pkg.CString(r.Host[:]) }

func (r *Record) Timestamp() time.Time {
	return time.Unix(r.Time.Sec, int64(r.Time.Usec)*int64(time.Microsecond))
}

func (r *Record) SetTimestamp(t time.Time) {
	r.Time.Sec = t.Unix()
	r.Time.Usec = int32(t.Nanosecond() / int(time.Microsecond))
}

// IP returns the address slot. IPv4 addresses occupy the first four bytes
// with the remainder zeroed.
func (r *Record) IP() net.IP {
	if bytes.Equal(r.Addr[4:], make([]byte, ADDR_SIZE-4)) {
		return net.IPv4(r.Addr[0], r.Addr[1], r.Addr[2], r.Addr[3])
	}
	ip := make(net.IP, net.IPv6len)
	copy(ip, r.Addr[:])
	return ip
}

func (r *Record) SetIP(ip net.IP) {
	r.Addr = [ADDR_SIZE]byte{}
	if v4 := ip.To4(); v4 != nil {
		copy(r.Addr[:], v4)
		return
	}
	copy(r.Addr[:], ip.To16())
}

func (r *Record) String() string {
	return fmt.Sprintf("[%s] pid=%d line=%q id=%q user=%q host=%q time=%d.%06d",
		r.Kind, r.PID, r.LineString(), r.IDString(), r.UserString(), r.HostString(),
		r.Time.Sec, r.Time.Usec)
}
