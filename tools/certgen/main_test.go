package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/atinyakov/storefront/internal/certgen"
)

func readCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("%s is not PEM", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return cert
}

func TestRun_WritesBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	var out bytes.Buffer
	if err := run([]string{"-dir", dir, "-hosts", "shop.local, 10.0.0.5"}, &out); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("shop.local, 10.0.0.5")) {
		t.Errorf("output = %q", out.String())
	}

	ca := readCert(t, filepath.Join(dir, certgen.CACertFile))
	server := readCert(t, filepath.Join(dir, certgen.ServerCertFile))
	if !reflect.DeepEqual(server.DNSNames, []string{"shop.local"}) {
		t.Errorf("DNSNames = %v", server.DNSNames)
	}
	if len(server.IPAddresses) != 1 || server.IPAddresses[0].String() != "10.0.0.5" {
		t.Errorf("IPAddresses = %v", server.IPAddresses)
	}
	if err := server.CheckSignatureFrom(ca); err != nil {
		t.Errorf("server cert not signed by CA: %v", err)
	}
}

func TestRun_ReuseCA(t *testing.T) {
	dir := t.TempDir()
	if err := run([]string{"-dir", dir}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	first := readCert(t, filepath.Join(dir, certgen.CACertFile))

	if err := run([]string{"-dir", dir, "-reuse-ca", "-hosts", "api.local"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run with -reuse-ca: %v", err)
	}
	second := readCert(t, filepath.Join(dir, certgen.CACertFile))
	if !first.Equal(second) {
		t.Error("CA was replaced")
	}
	server := readCert(t, filepath.Join(dir, certgen.ServerCertFile))
	if err := server.CheckSignatureFrom(first); err != nil {
		t.Errorf("server cert not signed by reused CA: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	if err := run([]string{"-dir", t.TempDir(), "-hosts", " , "}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for empty host list")
	}
	if err := run([]string{"-dir", t.TempDir(), "-reuse-ca"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error when no CA to reuse")
	}
	if err := run([]string{"-bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("expected flag error")
	}
}
