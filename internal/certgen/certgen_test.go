package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"testing"
	"time"
)

func TestNewAuthority(t *testing.T) {
	ca, err := NewAuthority("Test CA", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	if !ca.Cert.IsCA || !ca.Cert.BasicConstraintsValid {
		t.Error("CA certificate should be a valid CA")
	}
	if ca.Cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Error("CA certificate should be able to sign")
	}
	if ca.Cert.Subject.CommonName != "Test CA" {
		t.Errorf("CN = %q", ca.Cert.Subject.CommonName)
	}
}

func TestIssueServer_VerifiesAgainstCA(t *testing.T) {
	ca, err := NewAuthority("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	certPEM, keyPEM, err := ca.IssueServer([]string{"localhost", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueServer: %v", err)
	}
	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Fatalf("key pair mismatch: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(cert.IPAddresses) != 1 || len(cert.DNSNames) != 1 {
		t.Errorf("SANs = %v %v", cert.DNSNames, cert.IPAddresses)
	}

	roots := x509.NewCertPool()
	roots.AddCert(ca.Cert)
	for _, host := range []string{"localhost", "127.0.0.1"} {
		_, err := cert.Verify(x509.VerifyOptions{DNSName: host, Roots: roots})
		if err != nil {
			t.Errorf("verify %s: %v", host, err)
		}
	}
	if _, err := cert.Verify(x509.VerifyOptions{DNSName: "example.org", Roots: roots}); err == nil {
		t.Error("expected a host mismatch")
	}
}

func TestIssueServer_NoHosts(t *testing.T) {
	ca, err := NewAuthority("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ca.IssueServer(nil, time.Hour); err == nil {
		t.Error("expected an error without hosts")
	}
}

func TestWriteDevCertificates(t *testing.T) {
	dir := t.TempDir() + "/certs"
	files, err := WriteDevCertificates(dir, []string{"localhost"})
	if err != nil {
		t.Fatalf("WriteDevCertificates: %v", err)
	}
	if _, err := tls.LoadX509KeyPair(files.ServerCert, files.ServerKey); err != nil {
		t.Fatalf("load server pair: %v", err)
	}
	info, err := os.Stat(files.ServerKey)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key permissions = %v", perm)
	}
	caPEM, err := os.ReadFile(files.CACert)
	if err != nil {
		t.Fatal(err)
	}
	if !x509.NewCertPool().AppendCertsFromPEM(caPEM) {
		t.Error("ca.crt is not a PEM certificate")
	}
}
