package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uvensys/anchorauth"
	"github.com/uvensys/anchorauth/internal"
	libanchorauth "github.com/uvensys/anchorauth/lib"
	"github.com/uvensys/anchorauth/lib/config"
	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/store"
	_ "github.com/uvensys/anchorauth/lib/store/all"
)

var (
	bind               = flag.String("bind", ":8923", "network address to bind HTTP to")
	bindNetwork        = flag.String("bind-network", "tcp", "network family to bind HTTP to, e.g. unix, tcp")
	configFname        = flag.String("config", "", "full path to the anchorauth config file")
	healthcheck        = flag.Bool("healthcheck", false, "run a health check against anchorauth")
	metricsBind        = flag.String("metrics-bind", ":9090", "network address to bind metrics to")
	metricsBindNetwork = flag.String("metrics-bind-network", "tcp", "network family for the metrics server to bind to")
	serverSeed         = flag.String("server-seed", "", "seed of the keypair that signs challenges, if not set a random one will be assigned")
	serverSeedFile     = flag.String("server-seed-file", "", "file name containing value for server-seed")
	slogLevel          = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	socketMode         = flag.String("socket-mode", "0770", "socket mode (permissions) for unix domain sockets.")
	versionFlag        = flag.Bool("version", false, "print anchorauth version")
)

func doHealthCheck() error {
	resp, err := http.Get("http://localhost" + *bind + "/healthz")
	if err != nil {
		return fmt.Errorf("failed to fetch health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// parseBindNetFromAddr determine bind network and address based on the given network and address.
func parseBindNetFromAddr(address string) (string, string) {
	defaultScheme := "http://"
	if !strings.Contains(address, "://") {
		if strings.HasPrefix(address, ":") {
			address = defaultScheme + "localhost" + address
		} else {
			address = defaultScheme + address
		}
	}

	bindUri, err := url.Parse(address)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to parse bind URL: %w", err))
	}

	switch bindUri.Scheme {
	case "unix":
		return "unix", bindUri.Path
	case "tcp", "http", "https":
		return "tcp", bindUri.Host
	default:
		log.Fatal(fmt.Errorf("unsupported network scheme %s in address %s", bindUri.Scheme, address))
	}
	return "", address
}

func setupListener(network string, address string) (net.Listener, string) {
	formattedAddress := ""

	if network == "" {
		// keep compatibility
		network, address = parseBindNetFromAddr(address)
	}

	switch network {
	case "unix":
		formattedAddress = "unix:" + address
	case "tcp":
		if strings.HasPrefix(address, ":") { // assume it's just a port e.g. :4259
			formattedAddress = "http://localhost" + address
		} else {
			formattedAddress = "http://" + address
		}
	default:
		formattedAddress = fmt.Sprintf(`(%s) %s`, network, address)
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to bind to %s: %w", formattedAddress, err))
	}

	// additional permission handling for unix sockets
	if network == "unix" {
		mode, err := strconv.ParseUint(*socketMode, 8, 0)
		if err != nil {
			listener.Close()
			log.Fatal(fmt.Errorf("could not parse socket mode %s: %w", *socketMode, err))
		}

		err = os.Chmod(address, os.FileMode(mode))
		if err != nil {
			if err := listener.Close(); err != nil {
				log.Printf("failed to close listener: %v", err)
			}
			log.Fatal(fmt.Errorf("could not change socket mode: %w", err))
		}
	}

	return listener, formattedAddress
}

func loadServerKeypair() (*keypair.Full, error) {
	switch {
	case *serverSeed != "" && *serverSeedFile != "":
		return nil, errors.New("do not specify both SERVER_SEED and SERVER_SEED_FILE")
	case *serverSeed != "":
		return keypair.ParseFull(*serverSeed)
	case *serverSeedFile != "":
		seedFile, err := os.ReadFile(*serverSeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read SERVER_SEED_FILE %s: %w", *serverSeedFile, err)
		}

		return keypair.ParseFull(string(bytes.TrimSpace(seedFile)))
	default:
		kp, err := keypair.Random()
		if err != nil {
			return nil, fmt.Errorf("failed to generate server keypair: %w", err)
		}

		slog.Warn("generating random server keypair, challenges will not survive a restart and clients pinning the server account will reject them, set SERVER_SEED in production", "address", kp.Address())

		return kp, nil
	}
}

func main() {
	flagenv.Parse()
	flag.Parse()

	if *versionFlag {
		fmt.Println("anchorauth", anchorauth.Version)
		return
	}

	internal.InitSlog(*slogLevel)

	if *configFname == "" {
		log.Fatal("[misconfiguration] --config (or CONFIG) must point at the anchorauth config file")
	}

	cfg, err := config.LoadFile(*configFname)
	if err != nil {
		log.Fatalf("can't load config: %v", err)
	}

	configData, err := os.ReadFile(*configFname)
	if err != nil {
		log.Fatalf("can't read config: %v", err)
	}

	serverKP, err := loadServerKeypair()
	if err != nil {
		log.Fatalf("can't load server keypair: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, ok := store.Get(cfg.Store.Backend)
	if !ok {
		log.Fatalf("[unexpected] store backend %q passed validation but is not registered", cfg.Store.Backend)
	}

	ledger, err := factory.Build(ctx, cfg.Store.Parameters)
	if err != nil {
		log.Fatalf("can't build store backend %q: %v", cfg.Store.Backend, err)
	}

	s, err := libanchorauth.New(libanchorauth.Options{
		ServerKP: serverKP,
		Config:   cfg,
		Store:    ledger,
	})
	if err != nil {
		log.Fatalf("can't construct anchorauth server: %v", err)
	}

	wg := new(sync.WaitGroup)

	if *metricsBind != "" {
		wg.Add(1)
		go metricsServer(ctx, wg.Done)
	}

	srv := http.Server{Handler: s, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, listenerUrl := setupListener(*bindNetwork, *bind)
	slog.Info(
		"listening",
		"url", listenerUrl,
		"server-account", serverKP.Address(),
		"anchor-name", cfg.AnchorName,
		"network-passphrase", cfg.NetworkPassphrase,
		"challenge-timeout", cfg.Timeout(),
		"store-backend", cfg.Store.Backend,
		"config-fingerprint", internal.FastHash(string(configData)),
		"version", anchorauth.Version,
	)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	wg.Wait()
}

func metricsServer(ctx context.Context, done func()) {
	defer done()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := http.Server{Handler: mux, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, metricsUrl := setupListener(*metricsBindNetwork, *metricsBind)
	slog.Debug("listening for metrics", "url", metricsUrl)

	if *healthcheck {
		log.Println("running healthcheck")
		if err := doHealthCheck(); err != nil {
			log.Fatal(err)
		}
		return
	}

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
