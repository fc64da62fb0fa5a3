package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/client"
	"github.com/sparknet/synwatch/pkg/config"
	"github.com/sparknet/synwatch/pkg/policy"
	"github.com/sparknet/synwatch/pkg/signals"
)

const (
	connectRetries = 10
	connectWait    = 1 * time.Second
)

// connect dials the device and probes it with a Capabilities RPC, retrying
// while the device is not yet listening. The switch often comes up after the
// controller in a scripted deployment.
func connect(ctx context.Context, addr string, rpcTimeout time.Duration) (*grpc.ClientConn, p4_v1.P4RuntimeClient, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	c := p4_v1.NewP4RuntimeClient(conn)
	for i := 0; ; i++ {
		probeCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
		resp, err := c.Capabilities(probeCtx, &p4_v1.CapabilitiesRequest{})
		cancel()
		if err == nil {
			log.Infof("P4Runtime server version is %s", resp.P4RuntimeApiVersion)
			return conn, c, nil
		}
		if i >= connectRetries {
			conn.Close()
			return nil, nil, fmt.Errorf("device at %s not reachable after %d attempts: %w", addr, i+1, err)
		}
		log.Warnf("Device not ready (%v), retrying in %v", err, connectWait)
		time.Sleep(connectWait)
	}
}

func main() {
	ctx := context.Background()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML controller config")
	var addr string
	flag.StringVar(&addr, "addr", "", "P4Runtime server socket, overrides config")
	var deviceID uint64
	flag.Uint64Var(&deviceID, "device-id", 0, "Device id, overrides config")
	var binPath string
	flag.StringVar(&binPath, "bin", "", "Path to compiled P4 binary, overrides config")
	var p4infoPath string
	flag.StringVar(&p4infoPath, "p4info", "", "Path to P4Info text file, overrides config")
	var rpcTimeout time.Duration
	flag.DurationVar(&rpcTimeout, "rpc-timeout", 5*time.Second, "Deadline applied to each RPC")
	var verbose bool
	flag.BoolVar(&verbose, "verbose", false, "Enable trace logging")

	flag.Parse()

	if verbose {
		log.SetLevel(log.TraceLevel)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("Cannot load config: %v", err)
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if binPath != "" {
		cfg.BinPath = binPath
	}
	if p4infoPath != "" {
		cfg.P4InfoPath = p4infoPath
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "device-id" {
			cfg.DeviceID = deviceID
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Infof("Connecting to device at %s", cfg.Addr)
	conn, c, err := connect(ctx, cfg.Addr, rpcTimeout)
	if err != nil {
		log.Fatalf("Cannot connect to device: %v", err)
	}
	defer conn.Close()

	stopCh := signals.RegisterSignalHandlers()

	electionID := p4_v1.Uint128{High: cfg.ElectionID.High, Low: cfg.ElectionID.Low}
	p4RtC := client.NewClient(c, cfg.DeviceID, electionID)

	arbitrationCh := make(chan bool)
	go p4RtC.Run(stopCh, arbitrationCh, nil)

	waitCh := make(chan struct{})

	go func() {
		sent := false
		for isPrimary := range arbitrationCh {
			if isPrimary {
				log.Infof("We are the primary client!")
				if !sent {
					waitCh <- struct{}{}
					sent = true
				}
			} else {
				log.Infof("We are not the primary client!")
			}
		}
	}()

	func() {
		timeout := 5 * time.Second
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		select {
		case <-ctx.Done():
			log.Fatalf("Could not become the primary client within %v", timeout)
		case <-waitCh:
		}
	}()

	log.Info("Setting forwarding pipe")
	func() {
		ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
		defer cancel()
		if _, err := p4RtC.SetFwdPipe(ctx, cfg.BinPath, cfg.P4InfoPath, 0); err != nil {
			log.Fatalf("Error when setting forwarding pipe: %v", err)
		}
	}()

	installer := policy.NewInstaller(p4RtC, func(options *policy.InstallerOptions) {
		options.SynMask = cfg.Policy.SynMask
		options.SynPriority = cfg.Policy.SynPriority
		options.DropPriority = cfg.Policy.DropPriority
	})
	func() {
		ctx, cancel := context.WithTimeout(ctx, 2*rpcTimeout)
		defer cancel()
		if err := installer.Apply(ctx); err != nil {
			log.Fatalf("Error when installing SYN policy: %v", err)
		}
	}()

	log.Infof("SYN policy installed, %d entries written", len(installer.InstalledEntries()))
}
