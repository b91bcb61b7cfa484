package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/w6rfk/arinst/export"
	"github.com/w6rfk/arinst/sweep"

	// Blind import support for sqlite3 used by the sqlite exporter.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen   = flag.String("listen", ":8443", "Address and port to listen on.")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, mysql)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/arinst", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "arinst", "Name of the DB to use.")
)

const (
	collectEndpoint = "/arinst/v1/collect"
	latestEndpoint  = "/arinst/v1/latest"
)

type collectServer struct {
	frames chan sweep.Frame

	mu     sync.Mutex
	latest *sweep.Frame
}

func (s *collectServer) collectHandler(c *gin.Context) {
	frames := []sweep.Frame{}
	if err := c.ShouldBindJSON(&frames); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	for _, frame := range frames {
		s.setLatest(frame)
		s.frames <- frame
	}
	c.Status(http.StatusAccepted)
}

func (s *collectServer) latestHandler(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, s.latest)
}

func (s *collectServer) setLatest(frame sweep.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || !frame.Timestamp.Before(s.latest.Timestamp) {
		s.latest = &frame
	}
}

func (s *collectServer) router() *gin.Engine {
	router := gin.Default()
	router.POST(collectEndpoint, s.collectHandler)
	router.GET(latestEndpoint, s.latestHandler)
	return router
}

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

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
		cfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, sqlite, mysql", *output)
	}

	// Export frames.
	s := &collectServer{
		frames: make(chan sweep.Frame, 1000),
	}
	go func() {
		if err := exporter.Write(ctx, s.frames); err != nil {
			glog.Fatal(err)
		}
	}()

	// Configure and run webserver.
	router := s.router()
	if *certFile != "" || *keyFile != "" {
		glog.Fatal(router.RunTLS(*listen, *certFile, *keyFile))
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		glog.Fatal(router.Run(*listen))
	}

	glog.Flush()
}
