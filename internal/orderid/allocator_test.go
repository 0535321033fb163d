package orderid_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/origamishop/orders/internal/domain"
	"github.com/origamishop/orders/internal/orderid"
)

func TestAllocate_NormalIsUUID(t *testing.T) {
	id := orderid.New().Allocate(domain.OrderTypeNormal)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected UUID for normal channel, got %q: %v", id, err)
	}
	if strings.HasPrefix(id, orderid.GuestPrefix) || strings.HasPrefix(id, orderid.CustomPrefix) {
		t.Fatalf("normal channel id must not carry a prefix: %q", id)
	}
}

func TestAllocate_ChannelPrefixes(t *testing.T) {
	alloc := orderid.New()

	guest := alloc.Allocate(domain.OrderTypeGuest)
	if !strings.HasPrefix(guest, "GUEST-") {
		t.Fatalf("expected GUEST- prefix, got %q", guest)
	}
	custom := alloc.Allocate(domain.OrderTypeCustom)
	if !strings.HasPrefix(custom, "CUSTOM-") {
		t.Fatalf("expected CUSTOM- prefix, got %q", custom)
	}

	for _, id := range []string{guest, custom} {
		suffix := id[strings.Index(id, "-")+1:]
		if len(suffix) != 8 {
			t.Fatalf("expected 8-char suffix, got %q", suffix)
		}
		if suffix != strings.ToUpper(suffix) {
			t.Fatalf("suffix must be uppercase, got %q", suffix)
		}
	}
}

func TestAllocate_NoImmediateRepeats(t *testing.T) {
	alloc := orderid.New()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := alloc.Allocate(domain.OrderTypeGuest)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}
