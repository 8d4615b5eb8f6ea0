// The demo runs the in-memory backend with a few seeded users, so the CLI
// can be tried without the real service:
//
//	go run ./dev/demo --seed alice,bob,carol
//	go run . --base-url http://127.0.0.1:8000 login alice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mqy/minisocial/dev/fakeapi"
)

var (
	flagAddr      = flag.String("addr", "127.0.0.1:8000", "server address, ip:port")
	flagSecret    = flag.String("secret", "", "token signing secret, random when empty")
	flagAccessTTL = flag.Duration("access-ttl", time.Hour, "access token lifetime")
	flagSeed      = flag.String("seed", "alice,bob,carol", "comma separated users to create, all friends with each other")
	flagPassword  = flag.String("password", "demo-pass1!", "password of the seeded users")
	flagPprofDir  = flag.String("pprof-dir", "pprof", "dir to save pprof data files")
	flagDebug     = flag.Bool("debug", false, "gin debug mode")

	flagDisableMetrics = flag.Bool("disable-metrics", false, "disable prometheus metrics")
)

func main() {
	flag.Parse()

	// NOTE: os.Exit() does not call defers.
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	if v := validateFlags(); v > 0 {
		return v
	}

	pid := os.Getpid()
	pprofDir := filepath.Join(*flagPprofDir, strconv.Itoa(pid))
	if err := os.MkdirAll(pprofDir, 0750); err != nil {
		return errorf("--pprof-dir: error create dir `%s`: %v", pprofDir, err)
	}
	defer func() {
		_ = os.RemoveAll(pprofDir)
	}()

	srv := fakeapi.New(fakeapi.Config{
		Secret:    *flagSecret,
		AccessTTL: *flagAccessTTL,
		Debug:     *flagDebug,
	})
	if err := seed(srv, *flagSeed, *flagPassword); err != nil {
		return errorf("seed: %v", err)
	}

	mux := http.NewServeMux()
	if !*flagDisableMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		))
	}
	mux.Handle("/", srv.Handler())

	hs := &http.Server{Addr: *flagAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()

	glog.Infof("demo backend is listening on http://%s", *flagAddr)
	glog.Infof("`kill -USR1 %d` to dump goroutines; `kill -USR2 %d` to start/stop profiler; `CTRL+c` or `kill %d` to stop", pid, pid, pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	var prof *profiler
	defer func() {
		if prof != nil {
			prof.stop()
		}
	}()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return 0
			}
			return errorf("listen: %v", err)
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				dumpGoroutines(pprofDir)
			case syscall.SIGUSR2:
				if prof == nil {
					prof = startProfiler(pprofDir)
				} else {
					prof.stop()
					prof = nil
				}
			default:
				glog.Infof("received signal `%s` stopping", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := hs.Shutdown(ctx)
				cancel()
				if err != nil {
					return errorf("shutdown: %v", err)
				}
				glog.Info("demo backend exited")
				return 0
			}
		}
	}
}

func seed(srv *fakeapi.Server, names, password string) error {
	var ids []int64
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := srv.AddUser(name, name+"@example.com", password)
		if err != nil {
			return err
		}
		glog.Infof("seeded user %s (id %d)", name, id)
		ids = append(ids, id)
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			srv.MakeFriends(ids[i], ids[j])
		}
	}
	return nil
}

func validateFlags() int {
	if *flagAddr == "" {
		return errorf("--addr is required")
	}
	if err := validateAddr(*flagAddr); err != nil {
		return errorf("--addr: %v", err)
	}
	if *flagPprofDir == "" {
		return errorf("--pprof-dir is required")
	}
	if *flagAccessTTL < time.Minute {
		return errorf("--access-ttl must be at least one minute")
	}
	return 0
}

func validateAddr(s string) error {
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("error split host port from `%s`: %v", s, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("error parse IP from host `%s`", host)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("`%s` is not loopback or private address", host)
	}
	return nil
}

func errorf(format string, args ...interface{}) int {
	glog.Errorf(format, args...)
	return 1
}
