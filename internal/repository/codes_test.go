package repository

import "testing"

func TestRedisCooldown_KeyIsPerCustomerAndPhone(t *testing.T) {
	c := NewRedisCooldown(nil)

	if got := c.key(4, "+998901234567"); got != "smsbroker:codes:cooldown:4:+998901234567" {
		t.Fatalf("unexpected key %q", got)
	}
	if c.key(4, "+998901234567") == c.key(5, "+998901234567") {
		t.Fatalf("customers must not share a cooldown")
	}
}
