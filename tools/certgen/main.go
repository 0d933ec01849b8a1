// Package main writes a development CA and a server certificate signed by it
// into a directory. Start the server with -tls-cert and -tls-key pointing at
// server.crt and server.key, and the client with --ca pointing at ca.crt.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/storefront/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server names and IPs")
	reuse := fs.Bool("reuse-ca", false, "sign with the CA already in -dir instead of creating one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}

	var (
		ca  *certgen.Authority
		err error
	)
	if *reuse {
		ca, err = certgen.LoadAuthority(filepath.Join(*dir, certgen.CACertFile), filepath.Join(*dir, certgen.CAKeyFile))
	} else {
		ca, err = certgen.NewAuthority("Storefront Dev CA")
	}
	if err != nil {
		return err
	}
	if err := ca.WriteBundle(*dir, names...); err != nil {
		return err
	}
	fmt.Fprintf(out, "Certificates for %s written into %s\n", strings.Join(names, ", "), *dir)
	return nil
}
