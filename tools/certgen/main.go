// Command certgen writes a development CA and a server certificate for
// running the UniDocs server over HTTPS:
//
//	go run ./tools/certgen -dir certs -hosts localhost,127.0.0.1
//	TLS_CERT_FILE=certs/server.crt TLS_KEY_FILE=certs/server.key go run ./cmd/server
//	go run ./cmd/client --url https://localhost:8080 --ca certs/ca.crt stats
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/unidocs/internal/certgen"
)

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma separated DNS names or IPs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			list = append(list, h)
		}
	}
	files, err := certgen.WriteDevCertificates(*dir, list)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "CA:          %s\nServer cert: %s\nServer key:  %s\n", files.CACert, files.ServerCert, files.ServerKey)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
