package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/config"
	punchDomain "github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	appHTTP "github.com/workpulse-hr/punch-agent-go/internal/handler/http"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/camera"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/clock"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/cron"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/geoloc"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/hris"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/netinfo"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/token"
	"github.com/workpulse-hr/punch-agent-go/internal/repository/sqlite"
	punchService "github.com/workpulse-hr/punch-agent-go/internal/service/punch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	organizationID := cfg.Identity.OrganizationID
	userID := cfg.Identity.UserID
	if organizationID == "" || userID == "" {
		claims, err := token.Parse(cfg.Backend.AccessToken)
		if err != nil {
			log.Fatal("ORGANIZATION_ID/USER_ID not set and access token is unreadable: ", err)
		}
		if claims.Expired(time.Now()) {
			log.Fatal("Access token is expired; obtain a fresh one")
		}
		if organizationID == "" {
			organizationID = claims.OrganizationID
		}
		if userID == "" {
			userID = claims.UserID
		}
	}

	client := hris.NewClient(cfg.Backend.BaseURL, cfg.Backend.AccessToken, cfg.Backend.Timeout, cfg.Backend.UploadTimeout)

	interfaces := &netinfo.InterfaceSource{}
	publicIPs := make([]netinfo.PublicIPSource, 0, len(cfg.Probe.EchoURLs))
	for _, url := range cfg.Probe.EchoURLs {
		publicIPs = append(publicIPs, netinfo.NewEchoSource(url, 3*time.Second))
	}
	networkProbe := netinfo.NewProbe(
		interfaces,
		interfaces,
		publicIPs,
		[]netinfo.WifiSource{&netinfo.ExecWifiSource{Interface: cfg.Probe.WifiInterface}},
		nil,
	)

	geocoder := geoloc.NewNominatimGeocoder(cfg.Probe.GeocoderURL, 3*time.Second)
	locationProbe := geoloc.NewProbe(geoloc.NewExecFixSource(cfg.Probe.LocationCmd), geocoder, 3*time.Second)

	journal, err := sqlite.NewJournalRepository(cfg.Journal.Path)
	if err != nil {
		fmt.Println("Error opening journal:", err)
		return
	}

	stateStore := punchService.NewStateStore()
	displayClock := clock.New()
	orchestrator := punchService.NewOrchestrator(
		organizationID,
		userID,
		punchDomain.Source(cfg.Identity.Source),
		cfg.Identity.DeviceInfo,
		punchService.Deps{
			Network:      networkProbe,
			Location:     locationProbe,
			Camera:       camera.NewExecCamera(cfg.Probe.CameraCmd, cfg.Probe.PhotoDir),
			Connectivity: networkProbe,
			Client:       client,
			State:        stateStore,
			Journal:      journal,
			Now:          displayClock.Now,
		},
	)
	revalidator := punchService.NewRevalidator(networkProbe, locationProbe)

	// Seed state and clock from the backend; failures are tolerable, the
	// background jobs retry on their intervals.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	if state, err := client.TodayLogs(startupCtx, organizationID, userID); err != nil {
		fmt.Println("Could not load today's attendance at startup:", err)
	} else {
		stateStore.Replace(state)
	}
	if err := displayClock.Resync(startupCtx, client); err != nil {
		fmt.Println("Could not sync display clock at startup:", err)
	}
	cancelStartup()

	scheduler := cron.NewScheduler()
	scheduler.AddJob(cron.Job{
		Name:       "probe-revalidation",
		Interval:   cfg.Jobs.RevalidateInterval,
		Fn:         revalidator.Refresh,
		RunAtStart: true,
	})
	scheduler.AddJob(cron.Job{
		Name:     "clock-resync",
		Interval: cfg.Jobs.ClockSyncInterval,
		Fn: func(ctx context.Context) error {
			return displayClock.Resync(ctx, client)
		},
	})
	scheduler.Start()
	defer scheduler.Stop()

	punchHandler := appHTTP.NewPunchHandler(
		orchestrator,
		stateStore,
		revalidator,
		displayClock,
		client,
		journal,
		organizationID,
		userID,
	)
	router := appHTTP.NewRouter(punchHandler)

	server := &http.Server{Addr: cfg.Agent.Addr, Handler: router}
	go func() {
		fmt.Printf("Punch agent running at http://%s\n", cfg.Agent.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Shutdown error:", err)
	}
}
