package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muonsuite/muairss/sites"
)

var (
	reportsDir = flag.String("reports", "muairss-out", "directory tree holding report archives")
	listenAddr = flag.String("listen", ":8000", "listen address")
)

type ReportServer struct {
	report *sites.Report
}

// ReportInfo is the listing entry for one saved report archive.
type ReportInfo struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	NumClusters int       `json:"numClusters"`
	Timestamp   time.Time `json:"timestamp"`
	FileSize    int64     `json:"fileSize"`
}

// parseReportFilename decodes report-{numClusters}c-{timestamp}-{id}.zst.
func parseReportFilename(path string) (*ReportInfo, error) {
	name := strings.TrimSuffix(filepath.Base(path), ".zst")
	parts := strings.Split(name, "-")
	if len(parts) != 5 || parts[0] != "report" {
		return nil, fmt.Errorf("invalid report filename %s", name)
	}

	numClusters, err := strconv.Atoi(strings.TrimSuffix(parts[1], "c"))
	if err != nil {
		return nil, fmt.Errorf("invalid cluster count in %s: %v", name, err)
	}
	timestamp, err := time.Parse("20060102-150405", parts[2]+"-"+parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in %s: %v", name, err)
	}

	info := &ReportInfo{
		ID:          parts[4],
		Path:        path,
		NumClusters: numClusters,
		Timestamp:   timestamp,
	}
	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}
	return info, nil
}

func (s *ReportServer) listReports() ([]ReportInfo, error) {
	var reports []ReportInfo
	err := filepath.WalkDir(*reportsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".zst") {
			return nil
		}
		info, err := parseReportFilename(path)
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", path, err)
			return nil
		}
		reports = append(reports, *info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by timestamp descending
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})
	return reports, nil
}

func (s *ReportServer) loadReportById(id string) (*ReportInfo, error) {
	reports, err := s.listReports()
	if err != nil {
		return nil, err
	}

	for _, info := range reports {
		if info.ID != id {
			continue
		}
		loadStart := time.Now()
		report, err := sites.LoadCompressedMMap(info.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load report: %v", err)
		}
		fmt.Printf("Report loaded from file in %v\n", time.Since(loadStart))
		s.report = report
		return &info, nil
	}
	return nil, fmt.Errorf("report with ID %s not found", id)
}

func main() {
	flag.Parse()

	server := &ReportServer{}
	fmt.Println("Started with no report loaded - waiting for a report to be selected...")

	r := gin.Default()

	// Enable CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// List available report archives
	r.GET("/api/reports", func(c *gin.Context) {
		reports, err := server.listReports()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reports)
	})

	// Load a report archive into memory
	r.POST("/api/reports/load/:id", func(c *gin.Context) {
		id := c.Param("id")
		fmt.Printf("Received request to load report with ID: %s\n", id)

		info, err := server.loadReportById(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Report loaded successfully", "reportInfo": info})
	})

	// Return the loaded report
	r.GET("/api/report", func(c *gin.Context) {
		if server.report == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report loaded"})
			return
		}
		c.JSON(http.StatusOK, server.report)
	})

	// Return one cluster of the loaded report
	r.GET("/api/report/clusters/:idx", func(c *gin.Context) {
		if server.report == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report loaded"})
			return
		}
		idx, err := strconv.Atoi(c.Param("idx"))
		if err != nil || idx < 0 || idx >= len(server.report.Clusters) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cluster index"})
			return
		}
		c.JSON(http.StatusOK, server.report.Clusters[idx])
	})

	// Return the loaded report as the plain-text summary
	r.GET("/api/report/text", func(c *gin.Context) {
		if server.report == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report loaded"})
			return
		}
		var b strings.Builder
		if err := server.report.Render(&b); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, b.String())
	})

	// Create a channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		fmt.Printf("Starting server on %s...\n", *listenAddr)
		if err := r.Run(*listenAddr); err != nil {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	fmt.Println("\nShutting down server...")
	fmt.Println("Server stopped")
}
