package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldclock/agent-go/internal/config"
	"github.com/fieldclock/agent-go/internal/domain/device"
	"github.com/fieldclock/agent-go/internal/domain/syncer"
	appHTTP "github.com/fieldclock/agent-go/internal/handler/http"
	"github.com/fieldclock/agent-go/internal/pkg/badge"
	"github.com/fieldclock/agent-go/internal/pkg/clock"
	"github.com/fieldclock/agent-go/internal/pkg/cron"
	"github.com/fieldclock/agent-go/internal/repository/sqlite"
	attendanceService "github.com/fieldclock/agent-go/internal/service/attendance"
	employeeService "github.com/fieldclock/agent-go/internal/service/employee"
	syncerService "github.com/fieldclock/agent-go/internal/service/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	db, err := sqlite.NewSQLiteDB(cfg.Device.DatabasePath)
	if err != nil {
		fmt.Println("Error opening database:", err)
		return
	}
	defer db.Close()

	eventLedger := sqlite.NewEventLedger(db)
	employeeRepo := sqlite.NewEmployeeRepository(db)
	shiftRepo := sqlite.NewShiftRepository(db)
	deviceRepo := sqlite.NewDeviceRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap or update the installation row. Stored endpoint/token win
	// over configuration so UI changes survive restarts.
	dev, err := deviceRepo.Get(ctx, cfg.Device.ID)
	if errors.Is(err, device.ErrDeviceNotFound) {
		dev = device.Device{
			ID:          cfg.Device.ID,
			CaptureMode: cfg.Device.CaptureMode,
			Endpoint:    cfg.Sync.Endpoint,
			AuthToken:   cfg.Sync.Token,
			GPSEnabled:  cfg.Device.GPSEnabled,
		}
	} else if err != nil {
		log.Fatal("Failed to load device row:", err)
	}
	if err := deviceRepo.Upsert(ctx, dev); err != nil {
		log.Fatal("Failed to bootstrap device row:", err)
	}

	systemClock := clock.NewSystemClock()
	transport := syncerService.NewHTTPTransport(dev.Endpoint, dev.AuthToken, cfg.Sync.Timeout)

	coordinator := syncerService.NewCoordinator(
		eventLedger,
		deviceRepo,
		transport,
		systemClock,
		syncerService.Options{
			DeviceID:       cfg.Device.ID,
			Timeout:        cfg.Sync.Timeout,
			BackoffInitial: cfg.Sync.BackoffInitial,
			BackoffMax:     cfg.Sync.BackoffMax,
			MaxFailures:    cfg.Sync.MaxFailures,
		},
		networkProbe(dev.Endpoint),
		func(err error) {
			slog.Error("Sync degraded, automatic retries paused", "error", err)
		},
	)
	go coordinator.Run(ctx)

	attendanceSvc := attendanceService.NewAttendanceService(
		eventLedger,
		employeeRepo,
		shiftRepo,
		deviceRepo,
		badge.NewDecoder(),
		systemClock,
		coordinator,
		cfg.Device.ID,
		cfg.Sync.DuplicateWindow,
	)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo, shiftRepo, transport, systemClock)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("periodic-sync", cfg.Sync.Interval, func(ctx context.Context) error {
		coordinator.TriggerSync(syncer.TriggerPeriodic)
		return nil
	})
	scheduler.AddJob("directory-refresh", cfg.Sync.DirectoryInterval, func(ctx context.Context) error {
		_, err := employeeSvc.RefreshDirectory(ctx)
		return err
	})
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	employeeHandler := appHTTP.NewEmployeeHandler(employeeSvc, attendanceSvc)
	syncHandler := appHTTP.NewSyncHandler(coordinator)
	deviceHandler := appHTTP.NewDeviceHandler(deviceRepo, cfg.Device.ID)

	router := appHTTP.NewRouter(attendanceHandler, employeeHandler, syncHandler, deviceHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Agent running at http://%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Println("Server error:", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Shutdown error:", err)
	}
}

// networkProbe reports whether the sync endpoint's host is reachable. Used
// to gate periodic triggers so an offline device does not burn backoff state
// on a link it knows is down.
func networkProbe(endpoint string) func() bool {
	return func() bool {
		if endpoint == "" {
			return false
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			return false
		}
		host := u.Host
		if u.Port() == "" {
			switch u.Scheme {
			case "https":
				host = net.JoinHostPort(u.Hostname(), "443")
			default:
				host = net.JoinHostPort(u.Hostname(), "80")
			}
		}
		conn, err := net.DialTimeout("tcp", host, 3*time.Second)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
