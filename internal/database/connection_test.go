package database

import (
	"strings"
	"testing"
)

func TestConnectRequiresDSN(t *testing.T) {
	d := &Database{}
	err := d.Connect("")
	if err == nil {
		t.Fatal("connect accepted an empty dsn")
	}
	// The message must name the variable as the config layer reads it.
	if !strings.Contains(err.Error(), "PORTAL_DATABASE_URL") {
		t.Fatalf("error %q does not name PORTAL_DATABASE_URL", err)
	}
}
