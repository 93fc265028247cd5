// Package main writes a self-signed server certificate and key for running
// the server with -tls-cert and -tls-key during development.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/scrollie/internal/certgen"
)

func main() {
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma separated DNS names and IPs")
	certPath := flag.String("cert", "certs/server.crt", "certificate output path")
	keyPath := flag.String("key", "certs/server.key", "key output path")
	validFor := flag.Duration("valid-for", 365*24*time.Hour, "certificate lifetime")
	flag.Parse()

	if err := run(strings.Split(*hosts, ","), *certPath, *keyPath, *validFor); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Certificate written to %s, key to %s\n", *certPath, *keyPath)
}

func run(hosts []string, certPath, keyPath string, validFor time.Duration) error {
	var clean []string
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, h)
		}
	}
	pair, err := certgen.SelfSigned(clean, validFor)
	if err != nil {
		return err
	}
	return pair.Write(certPath, keyPath)
}
