package download

import (
	"errors"
	"testing"
)

func TestLeaseRegistry(t *testing.T) {
	reg := newLeaseRegistry()

	release, err := reg.acquire("/tmp/a.zip")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := reg.acquire("/tmp/a.zip"); !errors.Is(err, ErrDownloadInProgress) {
		t.Errorf("second acquire error = %v, want ErrDownloadInProgress", err)
	}

	// A different destination is independent.
	otherRelease, err := reg.acquire("/tmp/b.zip")
	if err != nil {
		t.Fatalf("acquire for other path: %v", err)
	}
	otherRelease()

	release()
	// Release is idempotent; a stale double-release must not free a new lease.
	again, err := reg.acquire("/tmp/a.zip")
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	release()
	if _, err := reg.acquire("/tmp/a.zip"); !errors.Is(err, ErrDownloadInProgress) {
		t.Errorf("acquire after stale release = %v, want ErrDownloadInProgress", err)
	}
	again()
}
