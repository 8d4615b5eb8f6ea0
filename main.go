package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/auth"
	"github.com/mqy/minisocial/form"
	"github.com/mqy/minisocial/store"
	"github.com/mqy/minisocial/ws"
)

var (
	flagBaseURL     = flag.String("base-url", "http://127.0.0.1:8000", "backend base url")
	flagCookieDB    = flag.String("cookie-db", defaultCookieDB(), "file the session cookies are kept in, empty to keep them in memory")
	flagMetricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. 127.0.0.1:9100")
	flagKeepalive   = flag.Duration("keepalive", ws.DefaultKeepalive, "live channel keepalive interval")
	flagTimeout     = flag.Duration("timeout", 15*time.Second, "timeout of a single command, chat excluded")
	flagEnvFile     = flag.String("env-file", ".env", "optional file with MINISOCIAL_* defaults")
)

// envFlags maps flags to the environment variables that may set them.
// Explicit flags win.
var envFlags = map[string]string{
	"base-url":     "MINISOCIAL_BASE_URL",
	"cookie-db":    "MINISOCIAL_COOKIE_DB",
	"metrics-addr": "MINISOCIAL_METRICS_ADDR",
	"keepalive":    "MINISOCIAL_KEEPALIVE",
	"timeout":      "MINISOCIAL_TIMEOUT",
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// NOTE: os.Exit() does not call defers.
	os.Exit(run())
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [flags] <command> [args]\n\ncommands:\n", filepath.Base(os.Args[0]))
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}

func run() int {
	defer glog.Flush()

	if err := loadEnv(*flagEnvFile); err != nil {
		return errorf("--env-file: %v", err)
	}
	if v := validateFlags(); v > 0 {
		return v
	}

	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		flag.Usage()
		return 2
	}

	var cookies store.ICookieStore
	if *flagCookieDB != "" {
		if err := os.MkdirAll(filepath.Dir(*flagCookieDB), 0700); err != nil {
			return errorf("--cookie-db: %v", err)
		}
		s, err := store.OpenCookieStore(*flagCookieDB)
		if err != nil {
			return errorf("--cookie-db: %v", err)
		}
		cookies = s
	}
	jar, err := store.NewJar(cookies)
	if err != nil {
		return errorf("cookie jar: %v", err)
	}
	defer jar.Close()

	client, err := api.NewClient(*flagBaseURL, jar)
	if err != nil {
		return errorf("--base-url: %v", err)
	}

	if *flagMetricsAddr != "" {
		go serveMetrics(*flagMetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if !cmd.interactive {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *flagTimeout)
		defer cancel()
	}

	session := auth.NewSession(client)
	a := &app{
		client:  client,
		session: session,
		flows:   auth.NewFlows(client, session),
		in:      newPrompter(os.Stdin),
		out:     os.Stdout,
	}

	if cmd.needUser {
		if err := session.Init(ctx); err != nil {
			return errorf("%s", describe(err))
		}
		if _, err := session.RequireUser(); err != nil {
			return errorf("not logged in, run `login` first")
		}
	}

	if err := cmd.run(ctx, a, flag.Args()[1:]); err != nil {
		return errorf("%s: %s", name, describe(err))
	}
	return 0
}

// loadEnv reads file, when it exists, and then fills every flag that was
// not given on the command line from its environment variable.
func loadEnv(file string) error {
	if file != "" {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	for name, key := range envFlags {
		v, ok := os.LookupEnv(key)
		if !ok || explicit[name] {
			continue
		}
		if err := flag.Set(name, v); err != nil {
			return fmt.Errorf("%s: %v", key, err)
		}
	}
	return nil
}

func validateFlags() int {
	if *flagBaseURL == "" {
		return errorf("--base-url is required")
	}
	u, err := url.Parse(*flagBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errorf("--base-url: expect http(s)://host[:port], got `%s`", *flagBaseURL)
	}
	if *flagKeepalive < time.Second {
		return errorf("--keepalive must be at least 1s")
	}
	if *flagTimeout <= 0 {
		return errorf("--timeout must be positive")
	}
	return 0
}

func defaultCookieDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "minisocial", "cookies.db")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{},
	))
	glog.Infof("metrics: serving on http://%s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		glog.Errorf("metrics: %v", err)
	}
}

// describe renders err for the terminal: backend and form errors carry a
// message meant for the user.
func describe(err error) string {
	var fe form.Errors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	var ae *api.Error
	if errors.As(err, &ae) {
		if len(ae.Fields) > 0 {
			parts := make([]string, 0, len(ae.Fields))
			for k, v := range ae.Fields {
				parts = append(parts, k+": "+v)
			}
			sort.Strings(parts)
			return ae.Detail + " (" + strings.Join(parts, "; ") + ")"
		}
		return ae.Detail
	}
	return err.Error()
}

func errorf(format string, args ...interface{}) int {
	glog.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 1
}
