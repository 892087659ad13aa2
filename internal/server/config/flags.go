package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/provenia/provenia/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t string   temp staging directory
//	-m int      max upload size, bytes
//	-n int      max files per batch
//	-w int      max concurrent ingests in a batch
//	-l string   allowed categories, comma separated
//	-o string   object store backend ("ipfs" or "s3")
//	-i string   kubo RPC endpoint (e.g., "http://127.0.0.1:5001")
//	-g string   public gateway base URL
//	-q int      object store call timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-m", "-n", "-w", "-l", "-o", "-i", "-g", "-q",
		"-u", "-p", "-b", "-r", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TempDir, "t", config.TempDir, "temp staging directory")

	fs.Int64Var(&config.MaxFileSizeBytes, "m", config.MaxFileSizeBytes, "max upload size (bytes)")
	fs.IntVar(&config.MaxFilesPerBatch, "n", config.MaxFilesPerBatch, "max files per batch")
	fs.IntVar(&config.MaxConcurrentIngests, "w", config.MaxConcurrentIngests, "max concurrent ingests")

	allowed := fs.String("l", strings.Join(config.AllowedCategories, ","), "allowed categories (comma separated)")

	fs.StringVar(&config.ObjectStoreBackend, "o", config.ObjectStoreBackend, "object store backend (ipfs|s3)")
	fs.StringVar(&config.IPFSAPIEndpoint, "i", config.IPFSAPIEndpoint, "kubo RPC endpoint")
	fs.StringVar(&config.IPFSGatewayURL, "g", config.IPFSGatewayURL, "public gateway base URL")

	storeTimeout := fs.Int("q", int(config.StoreTimeout.Seconds()), "object store call timeout (seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AllowedCategories = splitCategories(*allowed)
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
}

func splitCategories(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
