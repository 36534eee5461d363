package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"logindb/internal/config"
	"logindb/internal/lastlog"
	"logindb/internal/record"
	"logindb/internal/store"
	"logindb/internal/sweeper"
	"logindb/internal/wtmp"
)

const usage = `usage: logindb [flags] <command> [args]

commands:
  who                         list active sessions
  dump                        print every login record
  last [-n N]                 print the login history, newest first
  lastlog -uid N              print the last login of a uid
  login -line L -id I -user U [-host H] [-uid N]
  logout -line L
  sweep [-interval D]         close sessions of vanished processes
`

func main() {
	cfg := config.DefaultConfig()

	flag.StringVar(&cfg.UtmpPath, "utmp", cfg.UtmpPath, "login record file")
	flag.StringVar(&cfg.WtmpPath, "wtmp", cfg.WtmpPath, "login history log")
	flag.StringVar(&cfg.LastlogPath, "lastlog", cfg.LastlogPath, "last login file")
	flag.DurationVar(&cfg.LockTimeout, "lock-timeout", cfg.LockTimeout, "how long to wait for a file lock")
	narrow := flag.Bool("narrow", false, "use the 32-bit time record layout")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *verbose {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	width := record.Wide
	if *narrow {
		width = record.Narrow
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	s, err := store.New(cfg, width)
	if err != nil {
		log.Fatalf("Failed to init store: %v", err)
	}
	defer s.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "who":
		err = who(s)
	case "dump":
		err = dump(s)
	case "last":
		err = last(cfg, rest)
	case "lastlog":
		err = showLastlog(cfg, rest)
	case "login":
		err = login(cfg, s, rest)
	case "logout":
		err = logout(cfg, s, rest)
	case "sweep":
		err = sweep(cfg, s, rest)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		s.Close()
		log.Fatalf("%s: %v", cmd, err)
	}
}

func each(s *store.Store, fn func(r *record.Record)) error {
	if err := s.Rewind(s.Width()); err != nil {
		return err
	}
	for {
		r, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(r)
	}
}

func who(s *store.Store) error {
	return each(s, func(r *record.Record) {
		if r.Kind != record.UserProcess {
			return
		}
		fmt.Printf("%-12s %-12s %-20s %s\n", r.UserString(), r.LineString(), humanize.Time(r.Timestamp()), host(r))
	})
}

func dump(s *store.Store) error {
	n := 0
	err := each(s, func(r *record.Record) {
		fmt.Println(r)
		n++
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d records, %s (%s layout) in %s\n",
		n, humanize.Bytes(uint64(n*s.Width().Size())), s.Width(), s.Path())
	return nil
}

func last(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("last", flag.ExitOnError)
	limit := fs.Int("n", 0, "show at most N entries")
	fs.Parse(args)

	r, err := wtmp.Open(cfg.WtmpPath, cfg.WidthFor(cfg.WtmpPath))
	if err != nil {
		return err
	}
	defer r.Close()

	var rec record.Record
	it := r.Reverse()
	for shown := 0; it.Next(&rec); shown++ {
		if *limit > 0 && shown >= *limit {
			break
		}
		switch rec.Kind {
		case record.BootTime:
			fmt.Printf("%-12s %-12s %s\n", "reboot", "system boot", rec.Timestamp().Format(time.DateTime))
		case record.DeadProcess:
			fmt.Printf("%-12s %-12s %s logout\n", "", rec.LineString(), rec.Timestamp().Format(time.DateTime))
		default:
			fmt.Printf("%-12s %-12s %s %s\n", rec.UserString(), rec.LineString(), rec.Timestamp().Format(time.DateTime), host(&rec))
		}
	}
	fmt.Printf("\n%s begins with %d records\n", cfg.WtmpPath, r.Len())
	return nil
}

func showLastlog(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("lastlog", flag.ExitOnError)
	uid := fs.Uint("uid", 0, "user id")
	fs.Parse(args)

	e, err := lastlog.Read(cfg.LastlogPath, uint32(*uid), cfg.WidthFor(cfg.LastlogPath), cfg.LockTimeout)
	if errors.Is(err, lastlog.ErrNotFound) {
		fmt.Println("**Never logged in**")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %-20s %s\n", e.LineString(), e.HostString(), humanize.Time(e.Timestamp()))
	return nil
}

func login(cfg config.Config, s *store.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	line := fs.String("line", "", "terminal line")
	id := fs.String("id", "", "inittab id")
	user := fs.String("user", "", "user name")
	hostname := fs.String("host", "", "remote host")
	pid := fs.Int("pid", os.Getppid(), "session leader pid")
	uid := fs.Int("uid", -1, "also update the lastlog entry of this uid")
	fs.Parse(args)

	if *line == "" || *user == "" {
		return errors.New("-line and -user are required")
	}

	now := time.Now()
	r := &record.Record{Kind: record.UserProcess, PID: int32(*pid)}
	r.SetLine(*line)
	r.SetID(*id)
	r.SetUser(*user)
	r.SetHost(*hostname)
	r.SetTimestamp(now)

	if err := s.Upsert(r); err != nil {
		return err
	}
	appendHistory(cfg, r)

	if *uid >= 0 {
		e := &lastlog.Entry{Time: now.Unix()}
		e.SetLine(*line)
		e.SetHost(*hostname)
		if err := lastlog.Write(cfg.LastlogPath, uint32(*uid), e, cfg.WidthFor(cfg.LastlogPath), cfg.LockTimeout); err != nil {
			return err
		}
	}
	return nil
}

func logout(cfg config.Config, s *store.Store, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	line := fs.String("line", "", "terminal line")
	fs.Parse(args)

	if err := s.Rewind(s.Width()); err != nil {
		return err
	}
	r, err := s.FindLine(*line)
	if err != nil {
		return err
	}

	r.Kind = record.DeadProcess
	r.User = [record.NAME_SIZE]byte{}
	r.Host = [record.HOST_SIZE]byte{}
	r.SetTimestamp(time.Now())
	if err := s.Upsert(r); err != nil {
		return err
	}
	appendHistory(cfg, r)
	return nil
}

func sweep(cfg config.Config, s *store.Store, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	interval := fs.Duration("interval", 0, "keep sweeping at this interval until interrupted")
	fs.Parse(args)

	every := *interval
	if every <= 0 {
		every = sweeper.DefaultInterval
	}
	sw, err := sweeper.New(cfg, s, every)
	if err != nil {
		return err
	}

	if *interval <= 0 {
		n, err := sw.SweepOnce()
		if err != nil {
			return err
		}
		fmt.Printf("closed %d stale sessions\n", n)
		return nil
	}

	path, err := openedPath(s)
	if err != nil {
		return err
	}
	fmt.Printf("[Init] Sweeping %s every %s\n", path, every)
	sw.Start()
	defer sw.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("[Shutdown] Stopping sweeper...")
	return nil
}

// openedPath opens the store and reports the file it resolved to, which may
// be the legacy file rather than cfg.UtmpPath.
func openedPath(s *store.Store) (string, error) {
	if err := s.Rewind(s.Width()); err != nil {
		return "", err
	}
	return s.Path(), nil
}

// History is best effort; a missing log is not an error.
func appendHistory(cfg config.Config, r *record.Record) {
	a, err := wtmp.NewAppender(cfg)
	if err != nil {
		cfg.Logger.Printf("[Appender] %v", err)
		return
	}
	if err := a.Append(r); err != nil {
		cfg.Logger.Printf("[Appender] %v", err)
	}
}

func host(r *record.Record) string {
	if h := r.HostString(); h != "" {
		return "(" + h + ")"
	}
	return ""
}
