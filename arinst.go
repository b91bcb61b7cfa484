package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/w6rfk/arinst/acquisition"
	"github.com/w6rfk/arinst/device"
	"github.com/w6rfk/arinst/discovery"
	"github.com/w6rfk/arinst/export"
	"github.com/w6rfk/arinst/sweep"

	// Blind import support for sqlite3 used by the sqlite exporter.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier  = flag.String("id", "", "unique identifier of source instance (defaults to a random UUID)")
	port        = flag.String("port", "", "serial port of the device (e.g. /dev/ttyACM0); discovered when empty")
	baudRate    = flag.Int("baudRate", device.DefaultBaudRate, "serial baud rate")
	readTimeout = flag.Duration("readTimeout", device.DefaultReadTimeout, "timeout per serial read attempt")
	listPorts   = flag.Bool("listPorts", false, "list candidate serial ports and exit")

	startFreq   = flag.Uint64("startFreq", 1500000000, "lower frequency boundary in Hz")
	stopFreq    = flag.Uint64("stopFreq", 1700000000, "upper frequency boundary in Hz")
	stepFreq    = flag.Uint64("stepFreq", 1000000, "scan step in Hz")
	attenuation = flag.Int("attenuation", 0, "attenuation in dB (-30..0)")
	tracking    = flag.Bool("tracking", false, "use the tracking scan variant")
	generatorOn = flag.Bool("generatorOn", false, "turn the generator output on before sweeping (and off on exit)")

	filterLowFreq  = flag.Uint64("filterLowFreq", 0, "drop frames entirely below this frequency in Hz (0 to disable)")
	filterHighFreq = flag.Uint64("filterHighFreq", 0, "drop frames entirely above this frequency in Hz (0 to disable)")

	output = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, mysql, server)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/arinst", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "arinst", "Name of the DB to use.")

	// Collect Server
	collectServer       = flag.String("collectServer", "https://localhost:8443", "URL scheme, address and port of the collect server.")
	collectServerFrames = flag.Int("collectServerFrames", 0, "Defines how many frames should be sent to the server at once.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	if *listPorts {
		ports, err := discovery.ListPorts()
		if err != nil {
			glog.Exitf("unable to list serial ports: %s", err)
		}
		for _, p := range ports {
			fmt.Printf("%s\t%s\n", p.Name, p.Description)
		}
		return
	}

	if *identifier == "" {
		*identifier = uuid.NewString()
	}

	// Device setup
	portName := *port
	if portName == "" {
		var err error
		portName, err = discovery.FindDevice()
		if err != nil {
			glog.Exitf("no -port given and discovery found nothing: %s", err)
		}
		glog.Infof("Using discovered serial port %q\n", portName)
	}
	session, err := device.Open(portName, *baudRate, *readTimeout)
	if err != nil {
		glog.Exitf("unable to open device on %q: %s", portName, err)
	}
	defer session.Close()

	if *generatorOn {
		if err := session.TurnOn(); err != nil {
			glog.Exitf("unable to turn generator on: %s", err)
		}
		defer func() {
			if err := session.TurnOff(); err != nil {
				glog.Warningf("unable to turn generator off: %s\n", err)
			}
		}()
	}

	cfg := device.ScanConfig{
		StartHz:       *startFreq,
		StopHz:        *stopFreq,
		StepHz:        *stepFreq,
		AttenuationDb: *attenuation,
		Tracking:      *tracking,
	}
	if err := cfg.Validate(); err != nil {
		glog.Exit(err)
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		mysqlCfg := mysqlConfig(*mysqlUser, strings.TrimSpace(string(pass)), *mysqlServer, *mysqlDBName)
		db, err := sql.Open("mysql", mysqlCfg)
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	case "server":
		exporter = &export.CollectServer{
			Server:           *collectServer,
			SendFramesAmount: *collectServerFrames,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, sqlite, mysql, server", *output)
	}

	// Run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := acquisition.New(session, *identifier, cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	go func() {
		for err := range loop.Errors() {
			glog.Warningf("scan failed: %s\n", err)
		}
	}()

	frames := loop.Frames()
	if *filterLowFreq > 0 || *filterHighFreq > 0 {
		high := *filterHighFreq
		if high == 0 {
			high = device.MaxFrequencyHz
		}
		filtered := make(chan sweep.Frame)
		go func() {
			defer close(filtered)
			export.Filter(frames, filtered, []export.Filterer{
				&export.FilterFreq{FreqLow: *filterLowFreq, FreqHigh: high},
			})
		}()
		frames = filtered
	}

	if err := exporter.Write(ctx, frames); err != nil {
		glog.Fatal(err)
	}
	// Join the loop before the deferred session close so a scan never races
	// the port teardown.
	<-done

	glog.Flush()
}

func mysqlConfig(user, passwd, addr, dbName string) string {
	cfg := mysql.Config{
		User:   user,
		Passwd: passwd,
		Net:    "tcp",
		Addr:   addr,
		DBName: dbName,
	}
	return cfg.FormatDSN()
}
